package cli

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// CertConfig captures the options for the cert command. Certificate
// provisioning is independent of the generation pipeline: it reads no schema
// and touches no project file beyond the two PEM outputs.
type CertConfig struct {
	Hosts  []string
	Days   int
	OutDir string
	Force  bool
}

var certRunner = runCert

func newCertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Write a self-signed development TLS certificate and key",
		Long: "Write a self-signed ECDSA certificate (cert.pem) and private key (key.pem) for " +
			"local development. Not for production use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := cmd.Flags().GetStringSlice("host")
			if err != nil {
				return err
			}
			days, err := cmd.Flags().GetInt("days")
			if err != nil {
				return err
			}
			outDir, err := cmd.Flags().GetString("out-dir")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			if days <= 0 {
				return newUsageError("cert: --days must be positive")
			}
			cfg := &CertConfig{Hosts: hosts, Days: days, OutDir: outDir, Force: force}
			return certRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringSlice("host", []string{"localhost", "127.0.0.1"}, "Hostnames and IPs the certificate is valid for")
	cmd.Flags().Int("days", 365, "Validity period in days")
	cmd.Flags().String("out-dir", ".", "Where to write cert.pem and key.pem")
	cmd.Flags().Bool("force", false, "Overwrite existing cert.pem/key.pem")

	return cmd
}

func runCert(ctx context.Context, cfg *CertConfig) error {
	_ = ctx

	certPath := filepath.Join(cfg.OutDir, "cert.pem")
	keyPath := filepath.Join(cfg.OutDir, "key.pem")
	if !cfg.Force {
		for _, p := range []string{certPath, keyPath} {
			if _, err := os.Stat(p); err == nil {
				return newUsageError(fmt.Sprintf("cert: %q already exists (use --force to overwrite)", p))
			}
		}
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("cert: generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("cert: generate serial: %w", err)
	}

	now := time.Now()
	tmpl := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: firstHost(cfg.Hosts)},
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, cfg.Days),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range cfg.Hosts {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("cert: create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("cert: marshal key: %w", err)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("cert: %w", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("cert: write %s: %w", certPath, err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("cert: write %s: %w", keyPath, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s and %s (valid %d days)\n", certPath, keyPath, cfg.Days)
	return nil
}

func firstHost(hosts []string) string {
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			return h
		}
	}
	return "localhost"
}
