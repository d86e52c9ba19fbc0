package notify

import (
	"fmt"

	"fleuris_back_end/internal/models"
)

// euros formate un montant en centimes pour l'affichage.
func euros(cents int64) string {
	return fmt.Sprintf("%d,%02d€", cents/100, cents%100)
}

func sizeLabel(size models.BouquetSize) string {
	switch size {
	case models.SizeGenerous:
		return "Généreux"
	case models.SizeExceptional:
		return "Exceptionnel"
	default:
		return "Classique"
	}
}

func slotLabel(slot models.DeliverySlot) string {
	if slot == models.SlotAfternoon {
		return "Après-midi (14h-18h)"
	}
	return "Matin (9h-12h)"
}

func orderConfirmationHTML(o models.Order, lines []models.OrderLine) string {
	itemsHTML := ""
	for _, l := range lines {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s (%s)</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
			</tr>`, l.ProductName, sizeLabel(l.Size), l.Quantity, euros(l.PriceAtPurchase), euros(l.PriceAtPurchase*int64(l.Quantity)))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #faf7fb; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #7c3aed;">Merci pour votre commande ! 🌸</h2>
		<p>Bonjour %s,</p>
		<p>Votre paiement a bien été reçu. Nos fleuristes préparent votre bouquet
		pour une livraison le <strong>%s</strong> (%s).</p>

		<h3>Détails de la commande</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Bouquet</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Quantité</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Prix unitaire</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total :</td>
					<td style="padding: 10px; font-weight: bold;">%s</td>
				</tr>
			</tfoot>
		</table>

		<p>Suivez votre commande à tout moment :<br>
		<a href="https://fleuris.fr/track-order/%s">fleuris.fr/track-order/%s</a></p>

		<p style="margin-top: 30px; color: #555;">
			À très vite,<br>
			<strong>L'équipe Fleuris</strong>
		</p>
	</div>
</body>
</html>`, o.RecipientName, o.DeliveryDate.Format("02/01/2006"), slotLabel(o.DeliverySlot),
		itemsHTML, euros(o.TotalAmount), o.TrackingToken, o.TrackingToken)
}

func orderShippedHTML(o models.Order) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Commande expédiée</title></head>
<body style="font-family: Arial, sans-serif; background-color: #faf7fb; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #7c3aed;">Votre bouquet est en route ! 🚚</h2>
		<p>Bonjour %s,</p>
		<p>Votre commande a été confiée à notre livreur. Livraison prévue le
		<strong>%s</strong> (%s) à l'adresse :</p>
		<p style="padding: 10px; background-color: #f5f3ff; border-radius: 6px;">%s</p>

		<p>Suivi en temps réel :<br>
		<a href="https://fleuris.fr/track-order/%s">fleuris.fr/track-order/%s</a></p>

		<p style="margin-top: 30px; color: #555;">
			À très vite,<br>
			<strong>L'équipe Fleuris</strong>
		</p>
	</div>
</body>
</html>`, o.RecipientName, o.DeliveryDate.Format("02/01/2006"), slotLabel(o.DeliverySlot),
		o.RecipientAddress, o.TrackingToken, o.TrackingToken)
}
