package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/statechart/pkg/adapters/memory"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/persistence/middleware"
	"github.com/aretw0/statechart/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func matchSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Chart:   "battle-royale",
		RunID:   "run-1",
		Status:  domain.StatusActive,
		TakenAt: time.Now().UTC().Truncate(time.Second),
		Leaves:  []domain.Leaf{{NodeID: "game#2/match/playing", Name: "playing", Kind: domain.KindState, Activation: 7}},
		Root:    &domain.Frame{NodeID: "game", Name: "game", Kind: domain.KindSplit, Activation: 2},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSnapshotStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	// Setup
	underlyingStore := memory.NewStore()
	key := generateKey(t)
	secureStore := middleware.Chain(underlyingStore, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))

	ctx := context.Background()
	original := matchSnapshot()

	// 1. Save
	if err := secureStore.Save(ctx, original.RunID, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Verify Underlying Store directly (Should be encrypted)
	stored, err := underlyingStore.Load(ctx, original.RunID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(stored.Leaves) != 0 || stored.Root != nil {
		t.Fatalf("Expected configuration to be hidden, found leaves %v", stored.LeafIDs())
	}
	if len(stored.Sealed) == 0 {
		t.Fatal("Expected sealed payload")
	}
	if stored.Status != domain.StatusActive || !stored.TakenAt.Equal(original.TakenAt) {
		t.Errorf("Expected status and time to stay visible, got %s at %v", stored.Status, stored.TakenAt)
	}

	// 3. Load via Middleware (Should be decrypted)
	loaded, err := secureStore.Load(ctx, original.RunID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if got := loaded.LeafIDs(); len(got) != 1 || got[0] != "game#2/match/playing" {
		t.Errorf("Expected decrypted leaves, got %v", got)
	}
	if len(loaded.Sealed) != 0 {
		t.Error("Expected decrypted snapshot without sealed payload")
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	if err := oldStore.Save(ctx, "run-1", matchSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// New key only: decryption must fail.
	strict := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlyingStore)
	if _, err := strict.Load(ctx, "run-1"); err == nil {
		t.Fatal("Expected decryption to fail without the old key")
	}

	// New key with the old one as fallback.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)
	if _, err := rotated.Load(ctx, "run-1"); err != nil {
		t.Fatalf("Expected fallback key to decrypt: %v", err)
	}
}

func TestEncryptionMiddleware_RejectsPlainSnapshots(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, "run-1", matchSnapshot()); err != nil {
		t.Fatal(err)
	}

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(ctx, "run-1")
	if err == nil || !strings.Contains(err.Error(), "missing encrypted data envelope") {
		t.Fatalf("Expected envelope error, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for a short key")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
}
