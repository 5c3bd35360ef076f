package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaari_back_end/internal/middleware"
	"kaari_back_end/internal/services"
)

// StorageHandler expose l'upload et la suppression de fichiers
type StorageHandler struct {
	storage *services.StorageService
}

func NewStorageHandler(storage *services.StorageService) *StorageHandler {
	return &StorageHandler{storage: storage}
}

// === POST /api/storage/upload ===

func (h *StorageHandler) Upload(c *gin.Context) {
	objectPath := c.PostForm("path")
	if objectPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le champ 'path' est requis"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun fichier reçu"})
		return
	}

	// Ouvre le fichier (pas de stockage temporaire)
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ouverture fichier"})
		return
	}
	defer file.Close()

	url, err := h.storage.UploadFile(c.Request.Context(), middleware.ActorFrom(c), objectPath,
		file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Fichier uploadé", "path": objectPath, "url": url})
}

// === DELETE /api/storage?path= ===

func (h *StorageHandler) Delete(c *gin.Context) {
	objectPath := c.Query("path")
	if objectPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le paramètre 'path' est requis"})
		return
	}
	if err := h.storage.DeleteFile(c.Request.Context(), middleware.ActorFrom(c), objectPath); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fichier supprimé"})
}
