package v1beta1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// PolicyNamePrefix is prepended to the resource name to form the NetworkPolicy name.
	PolicyNamePrefix = "allow-egress-"

	// FinalizerName marks a CDBootstrap as claimed by this controller.
	FinalizerName = "cdbootstraps.cndev.nl/finalizer"
)

// CDBootstrapSpec defines the desired state of CDBootstrap.
type CDBootstrapSpec struct {
	// Replicas is the number of agent pods to run.
	// +kubebuilder:validation:Minimum=0
	Replicas int32 `json:"replicas"`

	// URL is the upstream organization URL the agents register with.
	URL string `json:"url"`

	// Pool is the agent pool identifier.
	Pool string `json:"pool"`

	// KeyVault is the URL of the vault holding the agent tokens.
	// +optional
	KeyVault string `json:"keyvault,omitempty"`

	// SPN is the client ID of the service principal used to authenticate to the vault.
	// +optional
	SPN string `json:"spn,omitempty"`

	// Tenant is the directory (tenant) ID the service principal belongs to.
	// +optional
	Tenant string `json:"tenant,omitempty"`
}

// CDBootstrapStatus defines the observed state of CDBootstrap.
type CDBootstrapStatus struct {
	// Succeeded reports whether the last reconciliation pass completed without error.
	Succeeded bool `json:"succeeded"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=cdb
// +kubebuilder:printcolumn:name="Replicas",type=integer,JSONPath=`.spec.replicas`
// +kubebuilder:printcolumn:name="Pool",type=string,JSONPath=`.spec.pool`
// +kubebuilder:printcolumn:name="Succeeded",type=boolean,JSONPath=`.status.succeeded`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// CDBootstrap is the Schema for the cdbootstraps API.
// It declares a pool of build agents together with the configuration,
// credentials and egress policy they need.
type CDBootstrap struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CDBootstrapSpec   `json:"spec,omitempty"`
	Status CDBootstrapStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// CDBootstrapList contains a list of CDBootstrap.
type CDBootstrapList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []CDBootstrap `json:"items"`
}

func init() {
	SchemeBuilder.Register(&CDBootstrap{}, &CDBootstrapList{})
}

// PolicyName returns the name of the NetworkPolicy owned by this resource.
func (c *CDBootstrap) PolicyName() string {
	return PolicyNamePrefix + c.Name
}

// IsDeleting reports whether the resource has a deletion timestamp.
func (c *CDBootstrap) IsDeleting() bool {
	return !c.DeletionTimestamp.IsZero()
}

// HasVaultSettings reports whether all fields needed to reach the vault are set.
func (s *CDBootstrapSpec) HasVaultSettings() bool {
	return s.KeyVault != "" && s.SPN != "" && s.Tenant != ""
}
