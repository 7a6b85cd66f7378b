package validator

import (
	"strconv"
	"strings"

	"github.com/flame-sim/flame/pkg/model"
)

// processVariableDynamicArray strips the _array suffix off a declared
// type and marks the variable dynamic.
func processVariableDynamicArray(variable *model.Variable) {
	if strings.HasSuffix(variable.Type, "_array") && len(variable.Type) > len("_array") {
		variable.DynamicArray = true
		variable.HoldsDynamicArray = true
		variable.Type = strings.TrimSuffix(variable.Type, "_array")
	}
}

// processVariableStaticArray parses a trailing [N] off a variable name
// and records the static array size.
func (v *Validator) processVariableStaticArray(variable *model.Variable) {
	open := strings.Index(variable.Name, "[")
	closing := strings.Index(variable.Name, "]")
	if open < 0 || closing < 0 || closing != len(variable.Name)-1 {
		return
	}

	variable.StaticArray = true
	sizeStr := variable.Name[open+1 : closing]
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		v.report.Addf(model.ErrInvalidArraySize, variable.Name,
			"static array number not an integer: %q", sizeStr)
	} else {
		if size < 1 {
			v.report.Addf(model.ErrInvalidArraySize, variable.Name,
				"static array size is not valid: %d", size)
		}
		variable.StaticArraySize = size
	}
	variable.Name = variable.Name[:open]
}

func (v *Validator) processVariable(variable *model.Variable) {
	processVariableDynamicArray(variable)
	v.processVariableStaticArray(variable)

	if dt := v.m.DataType(variable.Type); dt != nil {
		variable.HasADTType = true
		if dt.HoldsDynamicArray {
			variable.HoldsDynamicArray = true
		}
	}

	if variable.ConstantSet {
		switch variable.ConstantRaw {
		case "true":
			variable.Constant = true
		case "false":
			variable.Constant = false
		default:
			v.report.Addf(model.ErrInvalidConstant, variable.Name,
				"constant value is not 'true' or 'false': %q", variable.ConstantRaw)
		}
	}
}

func (v *Validator) validateVariableName(variable *model.Variable, all []*model.Variable, owner string) {
	if !nameIsAllowed(variable.Name) {
		v.report.Addf(model.ErrInvalidName, owner,
			"variable name is not valid: %q", variable.Name)
	}
	for _, other := range all {
		if other != variable && other.Name == variable.Name {
			v.report.Addf(model.ErrDuplicateName, owner,
				"duplicate variable name: %q", variable.Name)
		}
	}
}

func (v *Validator) validateVariableType(variable *model.Variable, owner string, allowDynamicArrays bool) {
	if !v.m.IsAllowedDataType(variable.Type) {
		v.report.Addf(model.ErrInvalidType, owner,
			"data type %q not valid for variable name %q", variable.Type, variable.Name)
	}

	if !allowDynamicArrays && variable.HoldsDynamicArray {
		if variable.DynamicArray {
			v.report.Addf(model.ErrInvalidType, owner,
				"dynamic array not allowed: '%s_array %s'", variable.Type, variable.Name)
		} else {
			v.report.Addf(model.ErrInvalidType, owner,
				"dynamic array (in data type) not allowed: '%s %s'", variable.Type, variable.Name)
		}
	}
}

// validateVariables processes then validates a variable list. Dynamic
// arrays are only permitted inside agent memory and ADTs.
func (v *Validator) validateVariables(variables []*model.Variable, owner string, allowDynamicArrays bool) {
	for _, variable := range variables {
		v.processVariable(variable)
	}
	for _, variable := range variables {
		v.validateVariableName(variable, variables, owner)
		v.validateVariableType(variable, owner, allowDynamicArrays)
	}
}

// validateDataTypes checks user ADTs: valid unique non-fundamental
// names, valid members, and the holds-dynamic-array flag.
func (v *Validator) validateDataTypes() {
	for _, adt := range v.m.DataTypes {
		if adt.Fundamental {
			continue
		}
		nameValid := nameIsAllowed(adt.Name)
		if !nameValid {
			v.report.Addf(model.ErrInvalidName, adt.Name,
				"data type name is not valid")
		}
		if v.m.IsAllowedDataType(adt.Name) {
			nameValid = false
			v.report.Addf(model.ErrDuplicateName, adt.Name,
				"data type already exists")
		}
		if !nameValid {
			continue
		}

		v.m.AddAllowedDataType(adt.Name)
		v.validateVariables(adt.Variables, "data type "+adt.Name, true)
		for _, member := range adt.Variables {
			if member.HoldsDynamicArray {
				adt.HoldsDynamicArray = true
			}
		}
	}
}
