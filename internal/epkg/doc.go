// Package epkg models interim fix packages under evaluation and extracts their metadata
// (label, packaging date, packages, files, prerequisite levels) from the emgr preview.
package epkg
