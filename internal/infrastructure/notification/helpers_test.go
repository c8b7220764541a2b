package notification

import "github.com/projecta/backend/internal/infrastructure/config"

func smtpConfig(host string, port int, from string) config.SMTPConfig {
	return config.SMTPConfig{Host: host, Port: port, From: from}
}
