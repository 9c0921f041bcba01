package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// BookmarkProxy forwards bookmark requests to the planning-tool backend.
// The office must stay usable without it, so reads degrade to an empty
// list with an error flag instead of failing the caller.
type BookmarkProxy struct {
	backendURL string
	client     *http.Client
}

func NewBookmarkProxy(backendURL string) *BookmarkProxy {
	return &BookmarkProxy{
		backendURL: backendURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *BookmarkProxy) Get(c *gin.Context) {
	resp, err := p.client.Get(p.backendURL + "/api/bookmarks")
	if err != nil {
		p.degrade(c, err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.degrade(c, resp.Status)
		return
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		p.degrade(c, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func (p *BookmarkProxy) degrade(c *gin.Context, reason string) {
	log.Warn().Str("module", "adapters.http").Str("backend", p.backendURL).Str("reason", reason).Msg("bookmark backend unreachable")
	c.JSON(http.StatusOK, gin.H{
		"bookmarks": []any{},
		"error":     true,
		"message":   "cannot connect to planning tool backend: " + reason,
	})
}

func (p *BookmarkProxy) Post(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "bad request body"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost,
		p.backendURL+"/api/bookmarks", bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Warn().Str("module", "adapters.http").Err(err).Msg("bookmark create failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": true, "message": "cannot connect to planning tool backend"})
		return
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": true, "message": err.Error()})
		return
	}
	c.Data(resp.StatusCode, "application/json", out)
}
