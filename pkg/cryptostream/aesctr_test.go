package cryptostream

import (
	"bytes"
	"crypto/aes"
	"crypto/rand"
	"io"
	"testing"
)

func encryptFixture(t *testing.T, key, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	ciphertext := make([]byte, len(plaintext))
	var keystream [aes.BlockSize]byte
	for i := 0; i < len(plaintext); i += aes.BlockSize {
		counter := addCounter(audioIV, int64(i/aes.BlockSize))
		block.Encrypt(keystream[:], counter[:])
		end := min(i+aes.BlockSize, len(plaintext))
		for j := i; j < end; j++ {
			ciphertext[j] = plaintext[j] ^ keystream[j-i]
		}
	}
	return ciphertext
}

func TestAesCtrDecryptStream_RoundTripsFullRead(t *testing.T) {
	key := make([]byte, 16)
	_, _ = rand.Read(key)
	plaintext := make([]byte, 100)
	_, _ = rand.Read(plaintext)

	ciphertext := encryptFixture(t, key, plaintext)
	stream, err := NewAesCtrDecryptStream(bytes.NewReader(ciphertext), key)
	if err != nil {
		t.Fatalf("NewAesCtrDecryptStream: %v", err)
	}

	got := make([]byte, len(plaintext))
	if _, err := io.ReadFull(stream, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("decrypted mismatch")
	}
}

func TestAesCtrDecryptStream_SeekIsTransparent(t *testing.T) {
	key := make([]byte, 16)
	_, _ = rand.Read(key)
	plaintext := make([]byte, 97) // not block-aligned
	_, _ = rand.Read(plaintext)
	ciphertext := encryptFixture(t, key, plaintext)

	stream, err := NewAesCtrDecryptStream(bytes.NewReader(ciphertext), key)
	if err != nil {
		t.Fatalf("NewAesCtrDecryptStream: %v", err)
	}

	offset := int64(37)
	if _, err := stream.Seek(offset, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, len(plaintext)-int(offset))
	if _, err := io.ReadFull(stream, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(got, plaintext[offset:]) {
		t.Fatalf("seek+read mismatch at offset %d", offset)
	}
}

func TestAesCtrDecryptStream_NilKeyIsPassthrough(t *testing.T) {
	data := []byte("plain bytes, unencrypted content")
	stream, err := NewAesCtrDecryptStream(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("NewAesCtrDecryptStream: %v", err)
	}
	got := make([]byte, len(data))
	if _, err := io.ReadFull(stream, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("passthrough mismatch")
	}
}

func TestAesCtrDecryptStream_RejectsBadKeyLength(t *testing.T) {
	_, err := NewAesCtrDecryptStream(bytes.NewReader(nil), make([]byte, 7))
	if err == nil {
		t.Fatal("expected error for invalid key length")
	}
}
