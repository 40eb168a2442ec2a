package xmpp

import (
	"crypto/tls"
	"errors"
	"strings"

	"github.com/mattn/go-xmpp"
	log "github.com/sirupsen/logrus"
)

// ErrNotConfigured is returned by Send when jid, password or recipient is missing.
var ErrNotConfigured = errors.New("missing xmpp config")

type (
	// Config for the notifier.
	Config struct {
		Host     string
		Jid      string
		Password string
		To       string
	}

	Xmpp struct {
		Config Config
	}
)

func serverName(jid string) string {
	parts := strings.Split(jid, "@")
	if len(parts) < 2 {
		return jid
	}
	return parts[1]
}

// Configured tells whether Send can reach a recipient.
func (x Xmpp) Configured() bool {
	return len(x.Config.Jid) > 0 && len(x.Config.Password) > 0 && len(x.Config.To) > 0
}

// Send delivers message to the configured recipient, one connection per
// message.
func (x Xmpp) Send(message string) error {

	if !x.Configured() {
		log.Debug("missing xmpp config")

		return ErrNotConfigured
	}

	if len(x.Config.Host) == 0 {
		x.Config.Host = serverName(x.Config.Jid)
	}

	xmpp.DefaultConfig = tls.Config{
		InsecureSkipVerify: true,
	}

	options := xmpp.Options{
		Host:          x.Config.Host,
		User:          x.Config.Jid,
		Password:      x.Config.Password,
		NoTLS:         true,
		StartTLS:      true,
		Debug:         false,
		Session:       false,
		Status:        "xa",
		StatusMessage: "Watching the anchor",
	}

	logger := log.WithFields(log.Fields{
		"host": x.Config.Host,
		"to":   x.Config.To,
	})

	talk, err := options.NewClient()
	if err != nil {
		logger.WithError(err).Warn("Xmpp connection failed")

		return err
	}
	defer talk.Close()

	if _, err := talk.Send(xmpp.Chat{Remote: x.Config.To, Type: "chat", Text: message}); err != nil {
		logger.WithError(err).Warn("Xmpp send failed")

		return err
	}

	logger.Info("Notification sent")
	return nil
}
