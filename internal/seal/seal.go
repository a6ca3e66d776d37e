// Package seal encrypts archive copies placed in the sync folder with age and
// decrypts them again on restore.
package seal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"filippo.io/age/agessh"
	"golang.org/x/crypto/ssh"
)

// Ext is appended to the name of sealed archives.
const Ext = ".age"

var (
	// ErrNoRecipients is returned when sealing is enabled without recipients.
	ErrNoRecipients = errors.New("no age recipients configured")
	// ErrNoIdentity is returned when a sealed archive must be opened without an identity file.
	ErrNoIdentity = errors.New("no age identity configured")
)

// PassphraseFunc supplies the passphrase of an encrypted SSH identity.
type PassphraseFunc func() ([]byte, error)

// Sealer encrypts streams to a fixed recipient set.
type Sealer struct {
	recipients []age.Recipient
}

// NewSealer parses inline recipients plus those listed in recipientFile.
func NewSealer(values []string, recipientFile string) (*Sealer, error) {
	all := append([]string(nil), values...)
	if recipientFile != "" {
		fromFile, err := ReadRecipientFile(recipientFile)
		if err != nil {
			return nil, fmt.Errorf("read recipient file %s: %w", recipientFile, err)
		}
		all = append(all, fromFile...)
	}
	recipients, err := ParseRecipients(all)
	if err != nil {
		return nil, err
	}
	return &Sealer{recipients: recipients}, nil
}

// Recipients returns how many recipients the sealer encrypts to.
func (s *Sealer) Recipients() int {
	return len(s.recipients)
}

// Seal encrypts src into dst.
func (s *Sealer) Seal(dst io.Writer, src io.Reader) error {
	w, err := age.Encrypt(dst, s.recipients...)
	if err != nil {
		return fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return fmt.Errorf("write sealed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize sealed data: %w", err)
	}
	return nil
}

// Unsealer decrypts streams with a fixed identity set.
type Unsealer struct {
	identities []age.Identity
}

// NewUnsealer loads identities from path. SSH private keys are accepted;
// passphrase is called only when an encrypted key is actually needed.
func NewUnsealer(path string, passphrase PassphraseFunc) (*Unsealer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoIdentity
	}
	identities, err := LoadIdentities(path, passphrase)
	if err != nil {
		return nil, err
	}
	return &Unsealer{identities: identities}, nil
}

// Unseal decrypts src into dst.
func (u *Unsealer) Unseal(dst io.Writer, src io.Reader) error {
	r, err := age.Decrypt(src, u.identities...)
	if err != nil {
		return fmt.Errorf("age decrypt: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("write unsealed data: %w", err)
	}
	return nil
}

// ParseRecipients parses age1 and ssh- recipients, ignoring duplicates.
func ParseRecipients(values []string) ([]age.Recipient, error) {
	values = dedupe(values)
	if len(values) == 0 {
		return nil, ErrNoRecipients
	}
	parsed := make([]age.Recipient, 0, len(values))
	for _, value := range values {
		recipient, err := parseRecipient(value)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, recipient)
	}
	return parsed, nil
}

func parseRecipient(value string) (age.Recipient, error) {
	switch {
	case strings.HasPrefix(value, "age1"):
		return age.ParseX25519Recipient(value)
	case strings.HasPrefix(strings.ToLower(value), "ssh-"):
		return agessh.ParseRecipient(value)
	default:
		return nil, fmt.Errorf("unsupported age recipient format: %s", value)
	}
}

// ReadRecipientFile returns the non-comment lines of a recipients file.
func ReadRecipientFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recipients []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		recipients = append(recipients, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return recipients, nil
}

// LoadIdentities reads an age identity file or an SSH private key.
func LoadIdentities(path string, passphrase PassphraseFunc) ([]age.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read identity file: %w", err)
	}
	if bytes.Contains(data, []byte("-----BEGIN")) {
		id, err := parseSSHIdentity(path, data, passphrase)
		if err != nil {
			return nil, err
		}
		return []age.Identity{id}, nil
	}
	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse identity file %s: %w", path, err)
	}
	return identities, nil
}

func parseSSHIdentity(path string, pemBytes []byte, passphrase PassphraseFunc) (age.Identity, error) {
	id, err := agessh.ParseIdentity(pemBytes)
	if err == nil {
		return id, nil
	}

	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return nil, fmt.Errorf("parse ssh identity %s: %w", path, err)
	}
	if passphrase == nil {
		return nil, fmt.Errorf("ssh identity %s is encrypted and no passphrase source is available", path)
	}

	pub := missing.PublicKey
	if pub == nil {
		// Legacy PEM keys do not embed the public key.
		pubBytes, err := os.ReadFile(path + ".pub")
		if err != nil {
			return nil, fmt.Errorf("encrypted ssh identity %s needs %s.pub: %w", path, path, err)
		}
		pub, _, _, _, err = ssh.ParseAuthorizedKey(pubBytes)
		if err != nil {
			return nil, fmt.Errorf("parse %s.pub: %w", path, err)
		}
	}
	return agessh.NewEncryptedSSHIdentity(pub, pemBytes, passphrase)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
