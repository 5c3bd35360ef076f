package utils

import (
	"fmt"
	"html"

	"kaari_back_end/internal/models"
)

// NotificationContent retourne le titre et le message in-app d'une notification
func NotificationContent(notifType, propertyTitle string, amount float64) (title, message string) {
	switch notifType {
	case models.NotifRefundApproved:
		return "Refund approved",
			fmt.Sprintf("Your refund of %.2f MAD for %s has been approved.", amount, propertyTitle)
	case models.NotifRefundRejected:
		return "Refund rejected",
			fmt.Sprintf("Your refund request for %s has been rejected.", propertyTitle)
	case models.NotifCancellationApproved:
		return "Cancellation approved",
			fmt.Sprintf("Your cancellation for %s has been approved. A refund of %.2f MAD is being processed.", propertyTitle, amount)
	case models.NotifCancellationRejected:
		return "Cancellation rejected",
			fmt.Sprintf("Your cancellation request for %s has been rejected.", propertyTitle)
	default:
		return "Kaari update", "There is an update on your request."
	}
}

func notificationSubject(notifType string) string {
	switch notifType {
	case models.NotifRefundApproved:
		return "✅ Remboursement approuvé - Kaari"
	case models.NotifRefundRejected:
		return "❌ Demande de remboursement refusée - Kaari"
	case models.NotifCancellationApproved:
		return "✅ Annulation approuvée - Kaari"
	case models.NotifCancellationRejected:
		return "❌ Demande d'annulation refusée - Kaari"
	default:
		return "📋 Mise à jour de votre demande - Kaari"
	}
}

func notificationColor(notifType string) string {
	switch notifType {
	case models.NotifRefundApproved, models.NotifCancellationApproved:
		return "#10b981" // Green
	case models.NotifRefundRejected, models.NotifCancellationRejected:
		return "#ef4444" // Red
	default:
		return "#6b7280" // Gray
	}
}

// RenderNotificationEmail génère le sujet et le HTML de l'e-mail associé
func RenderNotificationEmail(notifType, title, message, frontendURL string) (subject, body string) {
	color := notificationColor(notifType)
	body = fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse; background-color: #f5f5f5;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
                    <tr>
                        <td style="background-color: %s; padding: 40px 30px; text-align: center; border-radius: 12px 12px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 28px; font-weight: 600;">%s</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 40px 30px;">
                            <p style="margin: 0 0 25px 0; color: #333333; font-size: 16px; line-height: 1.6;">%s</p>
                            <table role="presentation" style="width: 100%%; margin: 30px 0;">
                                <tr>
                                    <td style="text-align: center;">
                                        <a href="%s/dashboard/user/reservations" style="display: inline-block; padding: 14px 32px; background-color: %s; color: #ffffff; text-decoration: none; border-radius: 6px; font-weight: 600; font-size: 15px;">
                                            Voir mes réservations
                                        </a>
                                    </td>
                                </tr>
                            </table>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px; background-color: #f8f9fa; border-radius: 0 0 12px 12px; text-align: center;">
                            <p style="margin: 0; color: #999999; font-size: 12px;">© Kaari - Tous droits réservés</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`, html.EscapeString(title), color, html.EscapeString(title), html.EscapeString(message), frontendURL, color)

	return notificationSubject(notifType), body
}
