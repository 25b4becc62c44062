package models

import (
	"time"

	"secure.paste/internal/codec"
)

// Share is a persisted record. It holds only ciphertext; the key that
// opens SealedContent exists only inside the token handed to the sender.
type Share struct {
	ID            string    `cbor:"1,keyasint"`
	SealedContent []byte    `cbor:"2,keyasint"`
	CreatedAt     time.Time `cbor:"3,keyasint"`
}

// record has Share's fields without its methods, so the CBOR encoder
// does not call back into MarshalBinary.
type record Share

func (s *Share) MarshalBinary() ([]byte, error) {
	return codec.Marshal((*record)(s))
}

func (s *Share) UnmarshalBinary(data []byte) error {
	return codec.Unmarshal(data, (*record)(s))
}
