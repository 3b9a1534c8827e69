package testutil

import (
	"crypto/ecdsa"
	"os"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/AvaProtocol/aa-gasbench/core/chainio/signer"
	"github.com/AvaProtocol/aa-gasbench/core/config"
	"github.com/AvaProtocol/aa-gasbench/pkg/eip1559"
	"github.com/AvaProtocol/aa-gasbench/storage"
)

// Anvil's first dev account, funded on every local devnet.
const (
	TestOwnerPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	TestOwnerAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// GetTestRPCURL points at a local devnet unless RPC_URL is set.
func GetTestRPCURL() string {
	v := os.Getenv("RPC_URL")
	if v == "" {
		return "http://127.0.0.1:8545"
	}

	return v
}

// Shortcut to initialize a storage at the given path, panic if we cannot create db
func TestMustDB() storage.Storage {
	db, err := storage.NewInMemory()
	if err != nil {
		panic(err)
	}
	return db
}

func GetLogger() sdklogging.Logger {
	logger, err := sdklogging.NewZapLogger("development")
	if err != nil {
		panic(err)
	}
	return logger
}

func TestOwnerKey() *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(TestOwnerPrivateKey)
	if err != nil {
		panic(err)
	}
	return key
}

func TestSigner() *signer.KeySigner {
	return signer.NewKeySigner(TestOwnerKey())
}

// NewTestSimChain is a SimChain at SimAddresses owned by the test signer.
func NewTestSimChain() *SimChain {
	return NewSimChain(TestSigner().Address(), SimAddresses())
}

// GetTestConfig is a config for running against a SimChain, writing results
// under dir.
func GetTestConfig(dir string) *config.Config {
	return &config.Config{
		EcdsaPrivateKey:  TestOwnerKey(),
		OwnerAddress:     TestSigner().Address(),
		Logger:           GetLogger(),
		Environment:      sdklogging.Development,
		EthRpcUrl:        GetTestRPCURL(),
		Addresses:        SimAddresses(),
		PriorityFee:      eip1559.DefaultPriorityFee,
		PaymasterDeposit: config.DefaultPaymasterDeposit,
		ResultsPath:      dir + "/results.json",
	}
}
