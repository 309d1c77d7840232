package mssql

import (
	"strconv"
	"strings"
)

// renderType formats a sys.types name with its length or precision the way
// SQL Server DDL spells it: VARCHAR(50), NVARCHAR(max), DECIMAL(10, 2).
// maxLength is sys.columns.max_length in bytes (-1 for max).
func renderType(typeName string, maxLength, precision, scale int) string {
	name := strings.ToUpper(typeName)

	switch name {
	case "VARCHAR", "CHAR", "VARBINARY", "BINARY":
		return name + "(" + lengthArg(maxLength, 1) + ")"
	case "NVARCHAR", "NCHAR":
		// UTF-16: two bytes per character
		return name + "(" + lengthArg(maxLength, 2) + ")"
	case "DECIMAL", "NUMERIC":
		return name + "(" + strconv.Itoa(precision) + ", " + strconv.Itoa(scale) + ")"
	case "DATETIME2", "DATETIMEOFFSET", "TIME":
		if scale != 7 {
			return name + "(" + strconv.Itoa(scale) + ")"
		}
		return name
	default:
		return name
	}
}

func lengthArg(maxLength, bytesPerChar int) string {
	if maxLength < 0 {
		return "max"
	}
	return strconv.Itoa(maxLength / bytesPerChar)
}
