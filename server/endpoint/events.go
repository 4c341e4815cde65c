package endpoint

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/taskflow/sse"
	"github.com/kbukum/taskflow/validation"
)

// Events streams run events as Server-Sent Events. The optional run query
// parameter limits the stream to one run.
func Events(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := sse.TopicAll
		if id := c.Query("run"); id != "" {
			if _, err := validation.ValidateUUID("run", id); err != nil {
				RespondWithError(c, err)
				return
			}
			filter = sse.RunTopic(id)
		}
		sse.ServeSSE(hub, c.Writer, c.Request, sse.NewClient(uuid.NewString(), filter))
	}
}
