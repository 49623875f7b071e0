package nsolana

import (
	"encoding/base64"
	"fmt"

	"surfpool-replay/core"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type account struct {
	private solana.PrivateKey
	public  solana.PublicKey
}

func newAccount(private solana.PrivateKey) *account {
	public := private.PublicKey()
	return &account{private: private, public: public}
}

// Signs compiled transactions with a single identity.
// Only transactions where this identity is the one and only required signer
// are accepted.
type Signer struct {
	logger  core.Logger
	account *account
}

func NewSigner(logger core.Logger, private solana.PrivateKey) *Signer {
	return &Signer{
		logger:  logger,
		account: newAccount(private),
	}
}

func (this *Signer) PublicKey() string {
	return this.account.public.String()
}

// Sign the given message bytes.
func (this *Signer) Sign(message []byte) (solana.Signature, error) {
	if len(message) == 0 {
		return solana.Signature{}, &core.InvalidMessageError{
			Reason: "empty message",
		}
	}

	signature, err := this.account.private.Sign(message)
	if err != nil {
		return solana.Signature{}, &core.InvalidMessageError{
			Reason: "cannot sign",
			Err:    err,
		}
	}

	return signature, nil
}

// Assemble puts the signature in the first slot of the transaction signature
// vector, sized to what the message requires.
func (this *Signer) Assemble(tx *solana.Transaction, signature solana.Signature) error {
	required := int(tx.Message.Header.NumRequiredSignatures)

	if required == 0 {
		return &core.InvalidMessageError{Reason: "no signature required"}
	}

	if required > 1 {
		return &core.InvalidMessageError{
			Reason: fmt.Sprintf("%d signatures required", required),
		}
	}

	if len(tx.Message.AccountKeys) == 0 {
		return &core.InvalidMessageError{Reason: "no account keys"}
	}

	if !tx.Message.AccountKeys[0].Equals(this.account.public) {
		return &core.InvalidMessageError{
			Reason: fmt.Sprintf("fee payer %s is not the signer %s",
				tx.Message.AccountKeys[0], this.account.public),
		}
	}

	tx.Signatures = make([]solana.Signature, required)
	tx.Signatures[0] = signature

	return nil
}

func (this *Signer) SignTransaction(compiled *core.CompiledTransaction) (*core.SignedTransaction, error) {
	raw, err := base64.StdEncoding.DecodeString(compiled.Encoded)
	if err != nil {
		return nil, &core.InvalidMessageError{
			Reason: "transaction is not base64",
			Err:    err,
		}
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, &core.InvalidMessageError{
			Reason: "cannot decode transaction",
			Err:    err,
		}
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, &core.InvalidMessageError{
			Reason: "cannot encode message",
			Err:    err,
		}
	}

	signature, err := this.Sign(message)
	if err != nil {
		return nil, err
	}

	err = this.Assemble(tx, signature)
	if err != nil {
		return nil, err
	}

	wire, err := tx.MarshalBinary()
	if err != nil {
		return nil, &core.InvalidMessageError{
			Reason: "cannot encode transaction",
			Err:    err,
		}
	}

	this.logger.Tracef("signed %s (%d bytes)", compiled.Name, len(wire))

	return &core.SignedTransaction{
		Name:      compiled.Name,
		Raw:       wire,
		Signature: signature.String(),
	}, nil
}
