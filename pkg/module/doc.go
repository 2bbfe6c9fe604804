// Package module defines the module descriptor and the catalog that loads
// descriptors lazily from disk. A module directory holds a module.toml plus
// an optional defaults/ directory of assets.
package module
