package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// FixReport records one run on one host: the options used, what every stage produced
// and how the run ended.
type FixReport struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   FixReportSpec   `json:"spec"`
	Status FixReportStatus `json:"status,omitempty"`
}

type FixReportSpec struct {
	APAR         string `json:"apar,omitempty"`
	Filesets     string `json:"filesets,omitempty"`
	CSV          string `json:"csv,omitempty"`
	Path         string `json:"path"`
	Force        bool   `json:"force,omitempty"`
	CheckOnly    bool   `json:"checkOnly,omitempty"`
	DownloadOnly bool   `json:"downloadOnly,omitempty"`
}

type FixReportStatus struct {
	// Phase is the last stage reached.
	Phase Phase `json:"phase,omitempty"`
	// Succeeded is false when the run stopped on a failure.
	Succeeded bool `json:"succeeded"`
	// Changed is true once the installer ran or installed fixes were removed.
	Changed bool   `json:"changed"`
	Message string `json:"message,omitempty"`

	// Messages are the operator messages of every stage.
	Messages []string `json:"messages,omitempty"`
	// Report is the raw checker report.
	Report []string `json:"report,omitempty"`
	// Parse holds the download URLs kept from the report.
	Parse []string `json:"parse,omitempty"`
	// Discover holds every fix package found behind those URLs.
	Discover []string `json:"discover,omitempty"`
	// Download holds the packages available locally.
	Download []string `json:"download,omitempty"`
	// Reject holds one reason per rejected package.
	Reject []string `json:"reject,omitempty"`
	// Check is the install order of the accepted packages.
	Check []string `json:"check,omitempty"`
	// Install is the installer output.
	Install []string `json:"install,omitempty"`
	// Interlocks names, for each package rejected on a conflict, the package that won the file.
	Interlocks []string `json:"interlocks,omitempty"`
}

type Phase string

const (
	PhaseTool     Phase = "Tool"
	PhaseFacts    Phase = "Facts"
	PhaseReport   Phase = "Report"
	PhaseParse    Phase = "Parse"
	PhaseDownload Phase = "Download"
	PhaseCheck    Phase = "Check"
	PhaseInstall  Phase = "Install"
	PhaseDone     Phase = "Done"
)

// NewFixReport returns an empty report for host.
func NewFixReport(host string) *FixReport {
	return &FixReport{
		TypeMeta: metav1.TypeMeta{
			APIVersion: GroupVersion.String(),
			Kind:       FixReportKind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:              host,
			CreationTimestamp: metav1.Now(),
		},
	}
}
