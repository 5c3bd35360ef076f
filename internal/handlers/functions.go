package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/services"
)

// callable est une fonction serveur appelée via POST /api/functions/:name
type callable func(c *gin.Context, actor models.Actor, data json.RawMessage) (interface{}, error)

// FunctionsHandler route les appels {"data": ...} vers les fonctions serveur
type FunctionsHandler struct {
	functions map[string]callable
}

func NewFunctionsHandler(storage *services.StorageService) *FunctionsHandler {
	h := &FunctionsHandler{functions: map[string]callable{}}
	h.functions["storage-getSignedUploadUrl"] = signedUploadURL(storage)
	h.functions["storage-getMultipleSignedUrls"] = multipleSignedURLs(storage)
	return h
}

func (h *FunctionsHandler) Call(c *gin.Context) {
	name := c.Param("name")
	fn, ok := h.functions[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Fonction inconnue: %s", name)})
		return
	}

	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	result, err := fn(c, middleware.ActorFrom(c), body.Data)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func decodeData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: data manquant", services.ErrValidation)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	return nil
}

func signedUploadURL(storage *services.StorageService) callable {
	return func(c *gin.Context, actor models.Actor, data json.RawMessage) (interface{}, error) {
		var in struct {
			Path        string `json:"path"`
			ContentType string `json:"contentType"`
		}
		if err := decodeData(data, &in); err != nil {
			return nil, err
		}
		if in.Path == "" {
			return nil, fmt.Errorf("%w: path requis", services.ErrValidation)
		}
		url, err := storage.SignedUploadURL(c.Request.Context(), actor, in.Path, in.ContentType)
		if err != nil {
			return nil, err
		}
		return gin.H{"url": url, "path": in.Path, "expiresIn": int(services.SignedURLTTL.Seconds())}, nil
	}
}

func multipleSignedURLs(storage *services.StorageService) callable {
	return func(c *gin.Context, actor models.Actor, data json.RawMessage) (interface{}, error) {
		var in struct {
			Paths []string `json:"paths"`
		}
		if err := decodeData(data, &in); err != nil {
			return nil, err
		}
		if len(in.Paths) == 0 {
			return nil, fmt.Errorf("%w: paths requis", services.ErrValidation)
		}
		urls, err := storage.SignedDownloadURLs(c.Request.Context(), actor, in.Paths)
		if err != nil {
			return nil, err
		}
		return gin.H{"urls": urls}, nil
	}
}
