package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nekos-API/Nekos.Land/internal/server/services"
)

const maxBodySize = 16 << 10

type reportBody struct {
	ImageID string `json:"imageID"`
	Message string `json:"message"`
}

func (s *Server) reportImage(c *gin.Context) {
	ctx := c.Request.Context()
	imageID := c.Param("imageId")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	// An empty body reports without a message.
	var body reportBody
	err := c.ShouldBindJSON(&body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Request body too large"})
		return
	}
	if err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed request body"})
		return
	}
	if body.ImageID != "" && body.ImageID != imageID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Image ID does not match the URL"})
		return
	}

	_, err = s.reports.Submit(ctx, currentUser(c), services.ReportRequest{
		ImageID: imageID,
		Message: body.Message,
	})
	switch {
	case errors.Is(err, services.ErrInvalidReport):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid report"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	c.Status(http.StatusNoContent)
}
