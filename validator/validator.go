package validator

import (
	"reflect"
	"sync"

	"github.com/NethermindEth/statedb/core"
	"github.com/NethermindEth/statedb/core/felt"
	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

// validateFeltHex accepts strings that parse as a field element.
func validateFeltHex(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := new(felt.Felt).SetString(s)
	return err == nil
}

// validateBlockNumber accepts block numbers that fit the 4 byte encoding.
func validateBlockNumber(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		return fl.Field().Uint() <= uint64(core.MaxBlockNumber)
	default:
		return false
	}
}

// Validator returns a singleton that can be used to validate various objects
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()

		if err := v.RegisterValidation("felt_hex", validateFeltHex); err != nil {
			panic("failed to register validation: " + err.Error())
		}

		if err := v.RegisterValidation("block_number", validateBlockNumber); err != nil {
			panic("failed to register validation: " + err.Error())
		}

		// Register these types to use their string representation for validation
		// purposes
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			switch f := field.Interface().(type) {
			case felt.Felt:
				return f.String()
			case *felt.Felt:
				return f.String()
			}
			panic("not a felt")
		}, felt.Felt{}, &felt.Felt{})
	})
	return v
}
