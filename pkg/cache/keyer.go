package cache

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// HTTPKey returns the key for a fetched HTTP body.
	HTTPKey(namespace, key string) string

	// LayoutKey returns the key for a solved layout of a tree.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key for a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds every option that changes a layout.
type LayoutKeyOpts struct {
	Root         string  `json:"root"`
	NodeDistance float64 `json:"node_distance"`
	SpouseGap    float64 `json:"spouse_gap"`
	VerticalGap  float64 `json:"vertical_gap"`
}

// ArtifactKeyOpts holds every option that changes a rendered output.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	View      string `json:"view"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Highlight string `json:"highlight,omitempty"`
	Avatars   bool   `json:"avatars"`
}

// DefaultKeyer hashes options into namespaced keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>". HTTP keys stay readable so
// individual entries can be inspected and deleted.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// LayoutKey hashes the tree hash with opts.
func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey hashes the layout hash with opts.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
