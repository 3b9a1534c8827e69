package matrix

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/AvaProtocol/aa-gasbench/model"
)

type operationRaw struct {
	Wallet     string `yaml:"wallet" validate:"required"`
	Paymaster  string `yaml:"paymaster"`
	GasPayment string `yaml:"gas_payment"`
	Creation   string `yaml:"creation"`
	Action     string `yaml:"action"`
	Reuse      *int   `yaml:"reuse" validate:"omitempty,min=0"`
}

type bundleRaw struct {
	Name       string         `yaml:"name" validate:"required"`
	Operations []operationRaw `yaml:"operations" validate:"required,min=1,dive"`
}

type fileRaw struct {
	Bundles []bundleRaw `yaml:"bundles" validate:"required,min=1,dive"`
}

var validate = validator.New()

// LoadFile reads a benchmark matrix from a YAML file.
func LoadFile(path string) ([]model.BundleDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML matrix. Omitted paymaster, gas_payment, creation and
// action fields default to none, self-balance, pre-created and value-transfer.
func Parse(data []byte) ([]model.BundleDescriptor, error) {
	var raw fileRaw
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, model.NewConfigurationError(fmt.Sprintf("invalid matrix yaml: %v", err), nil)
	}
	if err := validate.Struct(raw); err != nil {
		return nil, model.NewConfigurationError(fmt.Sprintf("invalid matrix: %v", err), nil)
	}

	bundles := make([]model.BundleDescriptor, 0, len(raw.Bundles))
	for _, b := range raw.Bundles {
		bundle := model.BundleDescriptor{Name: b.Name}
		hasReuse := false

		for _, o := range b.Operations {
			op, err := o.descriptor()
			if err != nil {
				return nil, err
			}
			bundle.Operations = append(bundle.Operations, op)
			if o.Reuse != nil {
				hasReuse = true
			}
		}

		if hasReuse {
			bundle.ReuseIndex = make([]*int, len(b.Operations))
			for i, o := range b.Operations {
				bundle.ReuseIndex[i] = o.Reuse
			}
		}

		if err := bundle.Validate(); err != nil {
			return nil, err
		}
		bundles = append(bundles, bundle)
	}

	return bundles, nil
}

func (o operationRaw) descriptor() (model.OperationDescriptor, error) {
	var (
		d   model.OperationDescriptor
		err error
	)

	if d.WalletKind, err = model.ParseWalletKind(o.Wallet); err != nil {
		return d, err
	}
	if d.PaymasterKind, err = model.ParsePaymasterKind(orDefault(o.Paymaster, model.NoPaymaster.String())); err != nil {
		return d, err
	}
	if d.GasPaymentStrategy, err = model.ParseGasPaymentStrategy(orDefault(o.GasPayment, model.SelfBalance.String())); err != nil {
		return d, err
	}
	if d.CreationStrategy, err = model.ParseCreationStrategy(orDefault(o.Creation, model.UsePreCreatedAccount.String())); err != nil {
		return d, err
	}
	if d.Action, err = model.ParseAction(orDefault(o.Action, model.NativeValueTransfer.String())); err != nil {
		return d, err
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
