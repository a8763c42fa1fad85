// SPDX-License-Identifier: MIT

// Package tls provisions self-signed certificates for the HTTP server.
// Deployments that terminate TLS upstream never touch this; it lets a
// bare instance expose HTTPS without an external PKI.
package tls

import (
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
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultCertPath is where generated certificates land when no
	// explicit path is configured.
	DefaultCertPath = "certs/ccore.crt"
	// DefaultKeyPath is the companion key location.
	DefaultKeyPath = "certs/ccore.key"
	// DefaultValidityYears bounds the lifetime of generated certificates.
	DefaultValidityYears = 10
)

// Config controls certificate provisioning.
type Config struct {
	CertPath string
	KeyPath  string
	Logger   zerolog.Logger
}

// EnsureCertificates returns paths to a usable certificate pair,
// generating a self-signed pair when none exists. An incomplete pair is
// regenerated as a whole; serving with a stale half would fail anyway.
func EnsureCertificates(cfg Config) (certPath, keyPath string, err error) {
	certPath = cfg.CertPath
	keyPath = cfg.KeyPath
	if certPath == "" {
		certPath = DefaultCertPath
	}
	if keyPath == "" {
		keyPath = DefaultKeyPath
	}

	certExists := fileExists(certPath)
	keyExists := fileExists(keyPath)

	if certExists && keyExists {
		cfg.Logger.Debug().Str("cert", certPath).Str("key", keyPath).Msg("tls certificates found")
		return certPath, keyPath, nil
	}
	if certExists || keyExists {
		cfg.Logger.Warn().
			Bool("cert_exists", certExists).
			Bool("key_exists", keyExists).
			Msg("incomplete tls certificate pair, regenerating both")
	}

	// Include the host's routable addresses as SANs so clients on the
	// LAN can verify the certificate, not just localhost.
	networkIPs, err := GetNetworkIPs()
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("network ip detection failed, certificate will cover localhost only")
		networkIPs = nil
	}

	if err := GenerateSelfSignedWithIPs(certPath, keyPath, DefaultValidityYears, networkIPs, nil); err != nil {
		return "", "", fmt.Errorf("generate self-signed certificates: %w", err)
	}

	cfg.Logger.Info().
		Str("cert", certPath).
		Str("key", keyPath).
		Int("validity_years", DefaultValidityYears).
		Int("san_ips", len(networkIPs)).
		Msg("self-signed tls certificates generated")

	return certPath, keyPath, nil
}

// GenerateSelfSigned writes a self-signed certificate pair covering
// localhost.
func GenerateSelfSigned(certPath, keyPath string, validityYears int) error {
	return GenerateSelfSignedWithIPs(certPath, keyPath, validityYears, nil, nil)
}

// GenerateSelfSignedWithIPs writes a self-signed ECDSA P-256 certificate
// pair. Additional IPs and DNS names are merged with the localhost
// defaults and deduplicated.
func GenerateSelfSignedWithIPs(certPath, keyPath string, validityYears int, additionalIPs []net.IP, additionalDNS []string) error {
	if err := os.MkdirAll(filepath.Dir(certPath), 0750); err != nil {
		return fmt.Errorf("create cert directory: %w", err)
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate private key: %w", err)
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return fmt.Errorf("generate serial number: %w", err)
	}

	notBefore := time.Now()
	notAfter := notBefore.AddDate(validityYears, 0, 0)

	ips := dedupeIPs(append([]net.IP{
		net.ParseIP("127.0.0.1"),
		net.ParseIP("::1"),
		net.ParseIP("0.0.0.0"),
		net.ParseIP("::"),
	}, additionalIPs...))

	dnsNames := dedupeStrings(append([]string{
		"localhost",
		"localhost.localdomain",
		"ccore",
	}, additionalDNS...))

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"ccore Self-Signed"},
			CommonName:   "ccore",
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           ips,
		DNSNames:              dnsNames,
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}

	// #nosec G304
	certOut, err := os.Create(certPath)
	if err != nil {
		return fmt.Errorf("create cert file: %w", err)
	}
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		_ = certOut.Close()
		return fmt.Errorf("encode certificate: %w", err)
	}
	if err := certOut.Close(); err != nil {
		return fmt.Errorf("close cert file: %w", err)
	}

	// #nosec G304
	keyOut, err := os.OpenFile(keyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	privBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		_ = keyOut.Close()
		return fmt.Errorf("marshal private key: %w", err)
	}
	if err := pem.Encode(keyOut, &pem.Block{Type: "EC PRIVATE KEY", Bytes: privBytes}); err != nil {
		_ = keyOut.Close()
		return fmt.Errorf("encode private key: %w", err)
	}
	if err := keyOut.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}

	return nil
}

func dedupeIPs(ips []net.IP) []net.IP {
	seen := make(map[string]bool, len(ips))
	out := make([]net.IP, 0, len(ips))
	for _, ip := range ips {
		if ip == nil || seen[ip.String()] {
			continue
		}
		seen[ip.String()] = true
		out = append(out, ip)
	}
	return out
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// GetNetworkIPs returns the host's non-loopback, non-link-local unicast
// addresses across all interfaces that are up.
func GetNetworkIPs() ([]net.IP, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("get network interfaces: %w", err)
	}

	var ips []net.IP
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}

			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
				continue
			}

			ips = append(ips, ip)
		}
	}

	return ips, nil
}
