package tstypes

import (
	"ariga.io/atlas/sql/postgres"

	"github.com/pgforge/pgforge/schema"
)

// tsTypes maps canonical catalog type names to TypeScript types. Integer
// types that fit a double map to number; bigint and numeric keep their
// string wire representation to avoid silent precision loss.
var tsTypes = map[string]string{
	postgres.TypeSmallInt:    "number",
	postgres.TypeInteger:     "number",
	postgres.TypeReal:        "number",
	postgres.TypeDouble:      "number",
	postgres.TypeSmallSerial: "number",
	postgres.TypeSerial:      "number",
	postgres.TypeBigInt:      "string",
	postgres.TypeBigSerial:   "string",
	postgres.TypeNumeric:     "string",
	postgres.TypeDecimal:     "string",
	postgres.TypeMoney:       "string",
	postgres.TypeBoolean:     "boolean",
	postgres.TypeText:        "string",
	postgres.TypeVarChar:     "string",
	postgres.TypeChar:        "string",
	postgres.TypeCharacter:   "string",
	postgres.TypeUUID:        "string",
	postgres.TypeCIDR:        "string",
	postgres.TypeInet:        "string",
	postgres.TypeMACAddr:     "string",
	postgres.TypeInterval:    "string",
	postgres.TypeBit:         "string",
	postgres.TypeBitVar:      "string",
	postgres.TypeXML:         "string",
	postgres.TypeDate:        "Date",
	postgres.TypeTime:        "string",
	postgres.TypeTimeTZ:      "string",
	postgres.TypeTimestamp:   "Date",
	postgres.TypeTimestampTZ: "Date",
	postgres.TypeJSON:        "unknown",
	postgres.TypeJSONB:       "unknown",
	postgres.TypeBytea:       "Uint8Array",
}

// TSType returns the TypeScript type for a raw catalog type, after alias
// and modifier normalization. Unknown types map to unknown.
func TSType(pgType string) string {
	if ts, ok := tsTypes[schema.NormalizePgType(pgType)]; ok {
		return ts
	}
	return "unknown"
}
