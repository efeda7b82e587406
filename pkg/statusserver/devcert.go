package statusserver

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"time"
)

// DevCertManager generates and caches a self-signed CA plus a leaf
// certificate for the introspection server, for callers that want to
// serve it over HTTPS on localhost without supplying their own
// certificate. It is optional: Router() works fine over plain HTTP.
type DevCertManager struct {
	CertsDir string
}

// NewDevCertManager creates a manager rooted at certsDir.
func NewDevCertManager(certsDir string) *DevCertManager {
	return &DevCertManager{CertsDir: certsDir}
}

func (cm *DevCertManager) caCertPath() string { return filepath.Join(cm.CertsDir, "ca.crt") }
func (cm *DevCertManager) caKeyPath() string  { return filepath.Join(cm.CertsDir, "ca.key") }
func (cm *DevCertManager) certPath() string   { return filepath.Join(cm.CertsDir, "statusserver.crt") }
func (cm *DevCertManager) keyPath() string    { return filepath.Join(cm.CertsDir, "statusserver.key") }

func (cm *DevCertManager) ensureCA() error {
	if _, err := os.Stat(cm.caCertPath()); err == nil {
		if _, err := os.Stat(cm.caKeyPath()); err == nil {
			return nil
		}
	}
	return cm.generateCA()
}

// TLSConfig returns a tls.Config serving a certificate covering the
// given hostnames, generating the CA and leaf certificate on first use
// and whenever the cached leaf no longer covers every requested name.
func (cm *DevCertManager) TLSConfig(hostnames []string) (*tls.Config, error) {
	if regenerate := cm.leafNeedsRegeneration(hostnames); regenerate {
		certPEM, keyPEM, err := cm.generateLeaf(hostnames)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(cm.certPath(), certPEM, 0644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(cm.keyPath(), keyPEM, 0600); err != nil {
			return nil, err
		}
	}

	cert, err := tls.LoadX509KeyPair(cm.certPath(), cm.keyPath())
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (cm *DevCertManager) leafNeedsRegeneration(hostnames []string) bool {
	certBytes, err := os.ReadFile(cm.certPath())
	if err != nil {
		return true
	}
	block, _ := pem.Decode(certBytes)
	if block == nil {
		return true
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return true
	}
	covered := make(map[string]bool, len(cert.DNSNames))
	for _, name := range cert.DNSNames {
		covered[name] = true
	}
	for _, name := range hostnames {
		if !covered[name] {
			return true
		}
	}
	return false
}

func (cm *DevCertManager) generateCA() error {
	priv, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return err
	}

	notBefore := time.Now()
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"spotify-core"},
			CommonName:   "spotify-core local introspection CA",
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(10 * 365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cm.CertsDir, 0755); err != nil {
		return err
	}

	certOut, err := os.Create(cm.caCertPath())
	if err != nil {
		return err
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		return err
	}

	keyOut, err := os.OpenFile(cm.caKeyPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer keyOut.Close()
	return pem.Encode(keyOut, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
}

func (cm *DevCertManager) generateLeaf(hostnames []string) ([]byte, []byte, error) {
	if err := cm.ensureCA(); err != nil {
		return nil, nil, err
	}

	caCertPEM, err := os.ReadFile(cm.caCertPath())
	if err != nil {
		return nil, nil, err
	}
	caKeyPEM, err := os.ReadFile(cm.caKeyPath())
	if err != nil {
		return nil, nil, err
	}

	caBlock, _ := pem.Decode(caCertPEM)
	caCert, err := x509.ParseCertificate(caBlock.Bytes)
	if err != nil {
		return nil, nil, err
	}
	keyBlock, _ := pem.Decode(caKeyPEM)
	caKey, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, nil, err
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, err
	}

	notBefore := time.Now()
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, err
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"spotify-core"},
			CommonName:   hostnames[0],
		},
		NotBefore:   notBefore,
		NotAfter:    notBefore.Add(365 * 24 * time.Hour),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:    hostnames,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, caCert, &priv.PublicKey, caKey)
	if err != nil {
		return nil, nil, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	return certPEM, keyPEM, nil
}
