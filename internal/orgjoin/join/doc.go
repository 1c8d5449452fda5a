// Package join resolves org ids of a scan report against an org mapping file.
//
// Everything here works on in-memory byte streams: ReadTable decodes CSV,
// BuildMapping turns the mapping table into an entity.MappingTable, Augment
// inserts the OrgName column, and EncodeCSV / EncodeXLSX serialize the result.
// No function touches the file system or keeps state between calls.
package join
