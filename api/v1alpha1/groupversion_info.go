// Package v1alpha1 contains the report document written by a fix run.
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupVersion identifies the report documents of this package.
var GroupVersion = schema.GroupVersion{Group: "flrtvc.power.aix", Version: "v1alpha1"}

const FixReportKind = "FixReport"
