// Package pagination accumulates paged remote listings into complete datasets.
//
// Listings advance either by 1-based page numbers with a total page count or by
// opaque cursors. PageState captures both so Collect drives any listing with one loop.
package pagination
