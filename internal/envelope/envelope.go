// Package envelope implements share tokens: content is sealed under a
// one-time key, and that key travels only inside the token, itself sealed
// under the deployment master key.
package envelope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"secure.paste/config"
	"secure.paste/internal/codec"
	"secure.paste/internal/crypto"
	"secure.paste/internal/models"
	"secure.paste/internal/store"
)

// MaxContentSize is the largest accepted submission, 1 MiB.
const MaxContentSize = 1 << 20

const (
	envelopeVersion = 1
	// Attempts at minting an id that the store does not already hold.
	maxIDAttempts = 3
)

// envelope is what a token decrypts to. It is never persisted.
type envelope struct {
	Version uint8  `cbor:"1,keyasint"`
	ID      string `cbor:"2,keyasint"`
	Key     []byte `cbor:"3,keyasint"`
}

// Protocol seals content under a single-use key and hands that key back
// inside a token sealed with the master key. The store only ever sees
// ciphertext. A Protocol holds no mutable state and is safe for
// concurrent use.
type Protocol struct {
	store     store.Store
	cipher    *crypto.Cipher
	masterKey []byte
	log       logrus.FieldLogger

	now   func() time.Time
	newID func() (string, error)
}

func New(st store.Store, cipher *crypto.Cipher, masterKey []byte, log logrus.FieldLogger) (*Protocol, error) {
	if st == nil {
		return nil, fmt.Errorf("envelope: store is required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("envelope: cipher is required")
	}
	if len(masterKey) != crypto.KeySize {
		return nil, crypto.ErrKeySize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Protocol{
		store:     st,
		cipher:    cipher,
		masterKey: append([]byte(nil), masterKey...),
		log:       log,
		now:       time.Now,
		newID:     newID,
	}, nil
}

// FromConfig derives the master key from the configured secret and
// builds a Protocol over st.
func FromConfig(cfg *config.Config, st store.Store, log logrus.FieldLogger) (*Protocol, error) {
	alg, err := crypto.ParseAlgorithm(cfg.Crypto.Cipher)
	if err != nil {
		return nil, err
	}
	cipher, err := crypto.NewCipher(alg)
	if err != nil {
		return nil, err
	}
	return New(st, cipher, crypto.DeriveMasterKey(cfg.Secret.Master.Reveal()), log)
}

// Share seals content, stores it and returns the token that alone can
// recover it.
func (p *Protocol) Share(ctx context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", errEmptyContent
	}
	if len(content) > MaxContentSize {
		return "", errTooLarge
	}

	contentKey, err := crypto.GenerateKey()
	if err != nil {
		p.log.WithError(err).Error("content key generation failed")
		return "", err
	}

	sealed, err := p.cipher.Seal(content, contentKey)
	if err != nil {
		p.log.WithError(err).Error("sealing content failed")
		return "", err
	}

	id, err := p.persist(ctx, sealed)
	if err != nil {
		return "", err
	}

	payload, err := codec.Marshal(envelope{Version: envelopeVersion, ID: id, Key: contentKey})
	if err != nil {
		p.log.WithError(err).Error("encoding envelope failed")
		return "", err
	}

	token, err := p.cipher.Seal(payload, p.masterKey)
	if err != nil {
		p.log.WithError(err).Error("sealing envelope failed")
		return "", err
	}

	p.log.WithField("id", id).Debug("share created")
	return codec.Encode(token), nil
}

// persist writes the sealed content under a fresh id. The store refuses
// to overwrite, so a colliding id is replaced with a new one.
func (p *Protocol) persist(ctx context.Context, sealed []byte) (string, error) {
	createdAt := p.now().UTC()

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := p.newID()
		if err != nil {
			p.log.WithError(err).Error("id generation failed")
			return "", err
		}

		err = p.store.Put(ctx, &models.Share{ID: id, SealedContent: sealed, CreatedAt: createdAt})
		switch {
		case err == nil:
			return id, nil
		case errors.Is(err, store.ErrExists):
			p.log.WithFields(logrus.Fields{"id": id, "attempt": attempt}).Warn("share id collision")
		default:
			p.log.WithError(err).WithField("id", id).Error("storing share failed")
			return "", ErrStorage
		}
	}

	return "", ErrStorage
}

// Retrieve opens token and returns the content it refers to.
func (p *Protocol) Retrieve(ctx context.Context, token string) ([]byte, error) {
	if token == "" {
		return nil, errEmptyToken
	}

	env, err := p.openToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	share, err := p.store.Get(ctx, env.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		p.log.WithError(err).WithField("id", env.ID).Error("loading share failed")
		return nil, ErrStorage
	}

	content, err := p.cipher.Open(share.SealedContent, env.Key)
	if err != nil {
		p.log.WithField("id", env.ID).Warn("stored share failed authentication")
		return nil, ErrDecryption
	}

	return content, nil
}

// openToken folds every way a token can be bad into one error.
func (p *Protocol) openToken(token string) (*envelope, error) {
	sealed, err := codec.Decode(token)
	if err != nil {
		return nil, err
	}

	payload, err := p.cipher.Open(sealed, p.masterKey)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := codec.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	if env.Version != envelopeVersion || len(env.Key) != crypto.KeySize {
		return nil, ErrInvalidToken
	}
	if id, err := uuid.Parse(env.ID); err != nil || id.String() != env.ID {
		return nil, ErrInvalidToken
	}

	return &env, nil
}

func newID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
