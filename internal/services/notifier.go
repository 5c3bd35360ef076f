package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"kaari_back_end/internal/database"
	"kaari_back_end/internal/models"
	"kaari_back_end/internal/repository"
	"kaari_back_end/internal/utils"
)

// Notifier prévient un utilisateur de l'issue d'une demande
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// EmailSender est implémenté par utils.Mailer
type EmailSender interface {
	SendHTML(ctx context.Context, to, subject, htmlBody string) error
}

// Dispatcher écrit la notification in-app puis envoie l'e-mail si possible
type Dispatcher struct {
	store       database.DocumentStore
	mailer      EmailSender
	frontendURL string
}

func NewDispatcher(store database.DocumentStore, mailer EmailSender, frontendURL string) *Dispatcher {
	return &Dispatcher{store: store, mailer: mailer, frontendURL: frontendURL}
}

func (d *Dispatcher) Notify(ctx context.Context, n models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	id, err := d.store.Create(ctx, repository.CollectionNotifications, map[string]interface{}{
		"userId":    n.UserID,
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"read":      false,
		"createdAt": n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("notification %s pour %s: %w", n.Type, n.UserID, err)
	}

	if d.mailer == nil {
		return nil
	}
	user, err := d.store.Get(ctx, repository.CollectionUsers, n.UserID)
	if err != nil {
		log.Printf("⚠️ E-mail %s non envoyé (notification %s): utilisateur %s introuvable: %v", n.Type, id, n.UserID, err)
		return nil
	}
	email, _ := user.Data["email"].(string)
	if email == "" {
		log.Printf("⚠️ E-mail %s non envoyé (notification %s): utilisateur %s sans adresse", n.Type, id, n.UserID)
		return nil
	}
	subject, body := utils.RenderNotificationEmail(n.Type, n.Title, n.Message, d.frontendURL)
	if err := d.mailer.SendHTML(ctx, email, subject, body); err != nil {
		log.Printf("⚠️ E-mail %s non envoyé (notification %s): %v", n.Type, id, err)
	}
	return nil
}

func buildNotification(userID, notifType, propertyTitle string, amount float64, data map[string]interface{}) models.Notification {
	title, message := utils.NotificationContent(notifType, propertyTitle, amount)
	return models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Data:    data,
	}
}
