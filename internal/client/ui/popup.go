package ui

import "sync"

// Trigger selects how a popup reacts to pointer input.
type Trigger int

const (
	TriggerClick Trigger = iota
	TriggerHover
)

// Popup is an open/closed flag with the usual dismissal rules: a click on
// the trigger toggles it, a click anywhere else closes it. Hover popups
// follow the pointer instead.
type Popup struct {
	mu       sync.Mutex
	trigger  Trigger
	open     bool
	onChange func(open bool)
}

// NewPopup returns a closed popup. onChange, if set, is called after every
// state change with the lock released.
func NewPopup(trigger Trigger, onChange func(open bool)) *Popup {
	return &Popup{trigger: trigger, onChange: onChange}
}

func (p *Popup) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *Popup) Open()   { p.set(true) }
func (p *Popup) Close()  { p.set(false) }
func (p *Popup) Toggle() { p.set(!p.IsOpen()) }

// Click handles a click on the trigger element.
func (p *Popup) Click() {
	if p.trigger == TriggerClick {
		p.Toggle()
	}
}

// ClickOutside handles a click outside both trigger and content.
func (p *Popup) ClickOutside() {
	p.Close()
}

func (p *Popup) HoverEnter() {
	if p.trigger == TriggerHover {
		p.Open()
	}
}

func (p *Popup) HoverLeave() {
	if p.trigger == TriggerHover {
		p.Close()
	}
}

func (p *Popup) set(open bool) {
	p.mu.Lock()
	changed := p.open != open
	p.open = open
	cb := p.onChange
	p.mu.Unlock()

	if changed && cb != nil {
		cb(open)
	}
}
