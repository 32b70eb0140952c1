package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// lightweight per-user credential store (file, 0600) with AES-GCM
// obfuscation. Not a replacement for OS keychains but avoids plain-text
// config. Holds the identity token used for login between runs; session
// state itself stays in memory.

const (
	fileName         = "credentials.json"
	identityTokenKey = "identity_token"
)

type credentialFile struct {
	Credentials map[string]string `json:"credentials"` // name -> base64(ciphertext)
}

// StoreIdentityToken persists the identity token used for login.
func StoreIdentityToken(token string) error {
	return store(identityTokenKey, token)
}

// FetchIdentityToken returns the stored identity token, if any.
func FetchIdentityToken() (string, error) {
	return fetch(identityTokenKey)
}

// DeleteIdentityToken removes the stored identity token; called on logout.
func DeleteIdentityToken() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	cf, err := load(path)
	if err != nil {
		return err
	}
	delete(cf.Credentials, identityTokenKey)
	return save(path, cf)
}

func store(name, value string) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	cf, _ := load(path)
	if cf.Credentials == nil {
		cf.Credentials = map[string]string{}
	}
	ct, err := encrypt([]byte(value))
	if err != nil {
		return err
	}
	cf.Credentials[name] = base64.StdEncoding.EncodeToString(ct)
	return save(path, cf)
}

func fetch(name string) (string, error) {
	path, err := filePath()
	if err != nil {
		return "", err
	}
	cf, err := load(path)
	if err != nil {
		return "", err
	}
	enc, ok := cf.Credentials[name]
	if !ok {
		return "", fmt.Errorf("credential not found")
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", err
	}
	pt, err := decrypt(raw)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

func filePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "tradewire")
	if err := os.MkdirAll(dir, 0o700); err != nil { // restrict directory
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func load(path string) (credentialFile, error) {
	var cf credentialFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return credentialFile{}, nil
		}
		return cf, err
	}
	if err := json.Unmarshal(data, &cf); err != nil {
		return cf, err
	}
	return cf, nil
}

func save(path string, cf credentialFile) error {
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func masterKey() ([]byte, error) {
	user := os.Getenv("USER")
	base := fmt.Sprintf("tradewire-%s-%s", runtime.GOOS, user)
	hash := sha256.Sum256([]byte(base))
	return hash[:], nil
}

func encrypt(plain []byte) ([]byte, error) {
	key, err := masterKey()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	key, err := masterKey()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
