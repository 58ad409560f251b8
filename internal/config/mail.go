package config

// SMTPAddr is the host:port of the outbound relay. Empty disables delivery.
func SMTPAddr() string {
	return GetEnv("SMTP_ADDR", "")
}

func SMTPUsername() string {
	return GetEnv("SMTP_USERNAME", "")
}

func SMTPPassword() string {
	return GetEnv("SMTP_PASSWORD", "")
}

func SMTPStartTLS() bool {
	return GetBoolEnv("SMTP_STARTTLS", true)
}

func MailFrom() string {
	return GetEnv("MAIL_FROM", "no-reply@localhost")
}

// DKIMSelector and DKIMPrivateKeyFile enable DKIM signing when both are set.
func DKIMSelector() string {
	return GetEnv("DKIM_SELECTOR", "")
}

func DKIMPrivateKeyFile() string {
	return GetEnv("DKIM_PRIVATE_KEY_FILE", "")
}

// MailSPFCheckIP is the relay's public IP; when set, startup checks that the
// sender domain's SPF record authorizes it.
func MailSPFCheckIP() string {
	return GetEnv("MAIL_SPF_CHECK_IP", "")
}
