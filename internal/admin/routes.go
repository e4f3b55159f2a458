package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barberbot/internal/access"
	"barberbot/internal/session"
)

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.health)

	api := s.router.Group("/api/chats/:number")
	api.GET("", s.getChat)
	api.DELETE("", s.clearChat)
	api.POST("/archive", s.archiveChat)
	api.POST("/unarchive", s.unarchiveChat)
}

type chatResponse struct {
	Number string        `json:"number"`
	Facet  string        `json:"facet"`
	State  session.State `json:"state"`
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.opts.Gate != nil {
		resp["authorizedNumbers"] = s.opts.Gate.Size()
	}
	c.JSON(http.StatusOK, resp)
}

// number lee el número de la ruta y lo deja sólo en dígitos, como la clave de sesión
func number(c *gin.Context) (string, bool) {
	n := access.Digits(c.Param("number"))
	if n == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "número inválido"})
		return "", false
	}
	return n, true
}

func (s *Server) getChat(c *gin.Context) {
	n, ok := number(c)
	if !ok {
		return
	}

	state, err := s.opts.Store.Get(c.Request.Context(), n)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chatResponse{Number: n, Facet: state.Facet().String(), State: state})
}

func (s *Server) clearChat(c *gin.Context) {
	n, ok := number(c)
	if !ok {
		return
	}

	if err := s.opts.Store.Clear(c.Request.Context(), n); err != nil {
		s.fail(c, err)
		return
	}
	s.opts.Logger.Info("🧹 Conversación borrada", zap.String("number", n))
	c.Status(http.StatusNoContent)
}

func (s *Server) archiveChat(c *gin.Context) {
	s.setArchived(c, true)
}

func (s *Server) unarchiveChat(c *gin.Context) {
	s.setArchived(c, false)
}

func (s *Server) setArchived(c *gin.Context, archived bool) {
	n, ok := number(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var err error
	if archived {
		err = access.Archive(ctx, s.opts.Store, n, s.opts.Now())
	} else {
		err = access.Unarchive(ctx, s.opts.Store, n, s.opts.Now())
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	state, err := s.opts.Store.Get(ctx, n)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.opts.Logger.Info("📂 Archivo actualizado desde la API", zap.String("number", n), zap.Bool("archived", archived))
	c.JSON(http.StatusOK, chatResponse{Number: n, Facet: state.Facet().String(), State: state})
}

func (s *Server) fail(c *gin.Context, err error) {
	s.opts.Logger.Error("❌ Error en la API", zap.Error(err), zap.String("path", c.FullPath()))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
}
