package ssl

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/tech-arch1tect/berth-archiver/internal/logging"

	"go.uber.org/zap"
)

const (
	CertFileName = "server.crt"
	KeyFileName  = "server.key"

	certificateValidity = 365 * 24 * time.Hour
)

// CertificateManager keeps a self-signed server certificate in certDir,
// generating one on first use.
type CertificateManager struct {
	certDir string
	logger  *logging.Logger
}

func NewCertificateManager(certDir string, logger *logging.Logger) *CertificateManager {
	return &CertificateManager{
		certDir: certDir,
		logger:  logger.With(zap.String("component", "ssl"), zap.String("cert_dir", certDir)),
	}
}

func (cm *CertificateManager) Paths() (string, string) {
	return filepath.Join(cm.certDir, CertFileName), filepath.Join(cm.certDir, KeyFileName)
}

func (cm *CertificateManager) EnsureCertificates() (string, string, error) {
	certPath, keyPath := cm.Paths()

	exists, err := bothExist(certPath, keyPath)
	if err != nil {
		return "", "", err
	}
	if exists {
		cm.logger.Info("using existing TLS certificate", zap.String("cert_path", certPath))
		return certPath, keyPath, nil
	}

	if err := cm.generate(certPath, keyPath); err != nil {
		cm.logger.Error("failed to generate self-signed certificate", zap.Error(err))
		return "", "", fmt.Errorf("failed to generate self-signed certificate: %w", err)
	}
	return certPath, keyPath, nil
}

func bothExist(paths ...string) (bool, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return true, nil
}

func (cm *CertificateManager) generate(certPath, keyPath string) error {
	if err := os.MkdirAll(cm.certDir, 0700); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 127))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	hostname, _ := os.Hostname()
	dnsNames := []string{"localhost", "berth-archiver"}
	if hostname != "" {
		dnsNames = append(dnsNames, hostname)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{Organization: []string{"Berth Archiver"}},
		NotBefore:    now,
		NotAfter:     now.Add(certificateValidity),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:     dnsNames,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	if err := writePEM(keyPath, "PRIVATE KEY", keyDER, 0600); err != nil {
		return err
	}
	if err := writePEM(certPath, "CERTIFICATE", certDER, 0644); err != nil {
		return err
	}

	cm.logger.Info("generated self-signed TLS certificate",
		zap.String("cert_path", certPath),
		zap.Strings("dns_names", dnsNames),
		zap.Time("valid_until", template.NotAfter),
	)
	return nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", path, err)
	}

	if err := pem.Encode(file, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
