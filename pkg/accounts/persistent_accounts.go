package accounts

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/lotusdblabs/lotusdb/v2"
	"go.solstake.io/stakepool/pkg/base58"
)

// PersistentAccounts is a lotusdb-backed Accounts implementation used by the
// offline tooling to cache fetched account state between runs.
type PersistentAccounts struct {
	db *lotusdb.DB
}

func OpenPersistentAccounts(dirPath string) (*PersistentAccounts, error) {
	options := lotusdb.DefaultOptions
	options.DirPath = dirPath

	db, err := lotusdb.Open(options)
	if err != nil {
		return nil, err
	}

	return &PersistentAccounts{db: db}, nil
}

func (p *PersistentAccounts) Close() error {
	return p.db.Close()
}

func (p *PersistentAccounts) GetAccount(pubkey *[32]byte) (*Account, error) {
	acctBytes, err := p.db.Get(pubkey[:])
	if err != nil {
		return nil, fmt.Errorf("error retrieving account %s: %s", base58.EncodeFromBytes(pubkey[:]), err)
	}

	decoder := bin.NewBinDecoder(acctBytes)
	acct := new(Account)

	err = acct.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize stored account %s", base58.EncodeFromBytes(pubkey[:]))
	}

	return acct, nil
}

func (p *PersistentAccounts) SetAccount(pubkey *[32]byte, acct *Account) error {
	writer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(writer)

	err := acct.MarshalWithEncoder(encoder)
	if err != nil {
		return fmt.Errorf("failed to serialize account %s for storage", base58.EncodeFromBytes(pubkey[:]))
	}

	err = p.db.Put(pubkey[:], writer.Bytes())
	if err != nil {
		return fmt.Errorf("error storing account %s: %s", base58.EncodeFromBytes(pubkey[:]), err)
	}

	return nil
}
