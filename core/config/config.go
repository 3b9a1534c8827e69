package config

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	sdkutils "github.com/Layr-Labs/eigensdk-go/utils"

	"github.com/AvaProtocol/aa-gasbench/core/chainio/aa"
	"github.com/AvaProtocol/aa-gasbench/model"
	"github.com/AvaProtocol/aa-gasbench/pkg/eip1559"
)

const (
	DefaultResultsPath = "results.json"
)

// DefaultPaymasterDeposit keeps 1 ETH on the verifying paymaster's entry
// point deposit.
var DefaultPaymasterDeposit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Config is everything a benchmark run needs, parsed from ConfigRaw.
type Config struct {
	EcdsaPrivateKey *ecdsa.PrivateKey
	OwnerAddress    common.Address
	Logger          sdklogging.Logger
	Environment     sdklogging.LogLevel

	EthRpcUrl string
	Addresses aa.Addresses

	PriorityFee      *big.Int
	PaymasterDeposit *big.Int

	ResultsPath          string
	DbPath               string
	MetricsIpPortAddress string
	MatrixPath           string
}

// These are read from configPath
type ConfigRaw struct {
	EcdsaPrivateKey string              `yaml:"ecdsa_private_key" validate:"required"`
	Environment     sdklogging.LogLevel `yaml:"environment" validate:"omitempty,oneof=development production"`
	EthRpcUrl       string              `yaml:"eth_rpc_url" validate:"required,url"`

	EntrypointAddress           string `yaml:"entrypoint_address" validate:"omitempty,eth_addr"`
	SimpleAccountFactoryAddress string `yaml:"simple_account_factory_address" validate:"required,eth_addr"`
	KernelFactoryAddress        string `yaml:"kernel_factory_address" validate:"required,eth_addr"`
	KernelImplementationAddress string `yaml:"kernel_implementation_address" validate:"required,eth_addr"`
	KernelECDSAValidatorAddress string `yaml:"kernel_ecdsa_validator_address" validate:"required,eth_addr"`
	VerifyingPaymasterAddress   string `yaml:"verifying_paymaster_address" validate:"required,eth_addr"`
	TokenAddress                string `yaml:"token_address" validate:"required,eth_addr"`

	ResultsPath          string `yaml:"results_path"`
	DbPath               string `yaml:"db_path"`
	MetricsIpPortAddress string `yaml:"metrics_ip_port_address" validate:"omitempty,hostname_port"`
	MatrixPath           string `yaml:"matrix_path"`

	PriorityFeeWei      string `yaml:"priority_fee_wei" validate:"omitempty,number"`
	PaymasterDepositWei string `yaml:"paymaster_deposit_wei" validate:"omitempty,number"`
}

var validate = validator.New()

// NewConfig reads and validates the YAML file at configFilePath.
func NewConfig(configFilePath string) (*Config, error) {
	if _, err := os.Stat(configFilePath); err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", configFilePath, err)
	}

	var configRaw ConfigRaw
	if err := sdkutils.ReadYamlConfig(configFilePath, &configRaw); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configFilePath, err)
	}
	return FromRaw(configRaw)
}

// FromRaw validates a raw config and derives the owner key, contract
// addresses and logger from it.
func FromRaw(configRaw ConfigRaw) (*Config, error) {
	if err := validate.Struct(configRaw); err != nil {
		return nil, model.NewConfigurationError(fmt.Sprintf("invalid config: %v", err), nil)
	}

	if configRaw.Environment == "" {
		configRaw.Environment = sdklogging.Development
	}
	logger, err := sdklogging.NewZapLogger(configRaw.Environment)
	if err != nil {
		return nil, err
	}

	ecdsaPrivateKey, err := crypto.HexToECDSA(strings.TrimPrefix(configRaw.EcdsaPrivateKey, "0x"))
	if err != nil {
		logger.Error("Cannot parse ecdsa private key", "err", err)
		return nil, model.NewConfigurationError("cannot parse ecdsa private key", nil)
	}

	ownerAddress, err := sdkutils.EcdsaPrivateKeyToAddress(ecdsaPrivateKey)
	if err != nil {
		logger.Error("Cannot get owner address", "err", err)
		return nil, err
	}

	priorityFee, err := weiOr(configRaw.PriorityFeeWei, eip1559.DefaultPriorityFee)
	if err != nil {
		return nil, model.NewConfigurationError(err.Error(), map[string]interface{}{"field": "priority_fee_wei"})
	}
	paymasterDeposit, err := weiOr(configRaw.PaymasterDepositWei, DefaultPaymasterDeposit)
	if err != nil {
		return nil, model.NewConfigurationError(err.Error(), map[string]interface{}{"field": "paymaster_deposit_wei"})
	}

	resultsPath := configRaw.ResultsPath
	if resultsPath == "" {
		resultsPath = DefaultResultsPath
	}

	return &Config{
		EcdsaPrivateKey: ecdsaPrivateKey,
		OwnerAddress:    ownerAddress,
		Logger:          logger,
		Environment:     configRaw.Environment,
		EthRpcUrl:       configRaw.EthRpcUrl,
		Addresses: aa.Addresses{
			EntryPoint:           addressOr(configRaw.EntrypointAddress, aa.DefaultEntryPointAddress),
			SimpleAccountFactory: common.HexToAddress(configRaw.SimpleAccountFactoryAddress),
			KernelFactory:        common.HexToAddress(configRaw.KernelFactoryAddress),
			KernelImplementation: common.HexToAddress(configRaw.KernelImplementationAddress),
			KernelECDSAValidator: common.HexToAddress(configRaw.KernelECDSAValidatorAddress),
			VerifyingPaymaster:   common.HexToAddress(configRaw.VerifyingPaymasterAddress),
			Token:                common.HexToAddress(configRaw.TokenAddress),
		},
		PriorityFee:          priorityFee,
		PaymasterDeposit:     paymasterDeposit,
		ResultsPath:          resultsPath,
		DbPath:               configRaw.DbPath,
		MetricsIpPortAddress: configRaw.MetricsIpPortAddress,
		MatrixPath:           configRaw.MatrixPath,
	}, nil
}
