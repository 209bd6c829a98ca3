// Package cli provides the interactive Nekos.Land terminal client.
//
// It wires configuration, the local session store, the API services and an
// interactive REPL. Typical flow: restore the previous session, load a random
// image and execute user commands until the user exits.
//
// Key features:
//   - Random image feed with an age rating filter (refresh or Ctrl+R)
//   - Like, save and follow with optimistic updates
//   - Artist pages with a gallery that loads page by page
//   - Reporting, sharing and the colour palette of the current image
//   - Sign-in through the browser and account settings
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
