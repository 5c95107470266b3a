// SPDX-License-Identifier: Apache-2.0

package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// writeTestCert generates a self signed certificate and its key, and writes
// them as PEM files in a temporary directory.
func writeTestCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "csv2chain-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "test.pem")
	keyFile = filepath.Join(dir, "test.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func Test_NewConfig(t *testing.T) {
	t.Parallel()

	certFile, keyFile := writeTestCert(t)

	systemCAs, err := x509.SystemCertPool()
	require.NoError(t, err)

	testPEMBytes, err := os.ReadFile(certFile)
	require.NoError(t, err)
	testCertPool := x509.NewCertPool()
	testCertPool.AppendCertsFromPEM(testPEMBytes)

	testClientKeyPair, err := tls.LoadX509KeyPair(certFile, keyFile)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  *Config

		wantConfig *tls.Config
		wantErr    error
	}{
		{
			name:       "ok - tls not enabled",
			cfg:        &Config{Enabled: false},
			wantConfig: nil,
		},
		{
			name: "ok - tls enabled no certificates",
			cfg:  &Config{Enabled: true},
			wantConfig: &tls.Config{
				MinVersion:   tls.VersionTLS12,
				Certificates: []tls.Certificate{},
				RootCAs:      systemCAs,
			},
		},
		{
			name: "ok - tls enabled with CA certificate PEM",
			cfg:  &Config{Enabled: true, CaCertPEM: string(testPEMBytes)},
			wantConfig: &tls.Config{
				MinVersion:   tls.VersionTLS12,
				Certificates: []tls.Certificate{},
				RootCAs:      testCertPool,
			},
		},
		{
			name: "ok - tls enabled with CA and client certificate",
			cfg: &Config{
				Enabled:        true,
				CaCertFile:     certFile,
				ClientCertFile: certFile,
				ClientKeyFile:  keyFile,
			},
			wantConfig: &tls.Config{
				MinVersion:   tls.VersionTLS12,
				Certificates: []tls.Certificate{testClientKeyPair},
				RootCAs:      testCertPool,
			},
		},
		{
			name: "ok - insecure skip verify",
			cfg:  &Config{Enabled: true, InsecureSkipVerify: true},
			wantConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				Certificates:       []tls.Certificate{},
				RootCAs:            systemCAs,
				InsecureSkipVerify: true, //nolint:gosec
			},
		},
		{
			name:    "error - invalid CA certificate file",
			cfg:     &Config{Enabled: true, CaCertFile: filepath.Join(t.TempDir(), "doesnotexist.pem")},
			wantErr: os.ErrNotExist,
		},
		{
			name:    "error - invalid CA certificate PEM",
			cfg:     &Config{Enabled: true, CaCertPEM: "not a certificate"},
			wantErr: errInvalidCACert,
		},
		{
			name: "error - invalid client key file",
			cfg: &Config{
				Enabled:        true,
				ClientCertFile: certFile,
				ClientKeyFile:  filepath.Join(t.TempDir(), "doesnotexist.key"),
			},
			wantErr: os.ErrNotExist,
		},
		{
			name: "error - invalid client key pair",
			cfg: &Config{
				Enabled:        true,
				ClientCertFile: certFile,
				ClientKeyFile:  certFile,
			},
			wantErr: errors.New("tls: found a certificate rather than a key in the PEM for the private key"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tlsCfg, err := NewConfig(tc.cfg)
			if !errors.Is(err, tc.wantErr) {
				require.EqualError(t, err, tc.wantErr.Error())
			}
			require.Equal(t, "", cmp.Diff(tlsCfg, tc.wantConfig, cmpopts.IgnoreUnexported(tls.Config{}))) //nolint:gosec
		})
	}
}

func TestConfig_IsClientCertProvided(t *testing.T) {
	t.Parallel()

	require.False(t, (&Config{}).IsClientCertProvided())
	require.False(t, (&Config{ClientCertPEM: "cert"}).IsClientCertProvided())
	require.True(t, (&Config{ClientCertPEM: "cert", ClientKeyFile: "key.pem"}).IsClientCertProvided())
}
