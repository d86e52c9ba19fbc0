// Package notify envoie les e-mails transactionnels du service. Un échec
// d'envoi est toujours logué puis avalé par l'appelant : il ne doit jamais
// faire échouer la transition métier à laquelle il est rattaché.
package notify

import (
	"fmt"
	"log"

	"github.com/wneessen/go-mail"

	"fleuris_back_end/internal/config"
	"fleuris_back_end/internal/models"
)

type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
	}
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// SendOrderConfirmation envoie le récapitulatif après confirmation du paiement.
func (m *Mailer) SendOrderConfirmation(o models.Order, lines []models.OrderLine) error {
	if o.RecipientEmail == "" {
		return fmt.Errorf("commande %s sans e-mail destinataire", o.ID)
	}
	return m.send(o.RecipientEmail, "Confirmation de votre commande Fleuris 🌸", orderConfirmationHTML(o, lines))
}

// SendOrderShipped prévient le client que son bouquet est en route.
func (m *Mailer) SendOrderShipped(o models.Order) error {
	if o.RecipientEmail == "" {
		return fmt.Errorf("commande %s sans e-mail destinataire", o.ID)
	}
	return m.send(o.RecipientEmail, "Votre commande est en route ! 🚚", orderShippedHTML(o))
}
