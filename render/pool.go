// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"sync"
)

// ImagePool reuses RGBA images with identical bounds. Aggregation renumbers
// render passes every frame, so intermediate pass images are pooled by
// bounds rather than kept per pass id.
//
// All methods are safe for concurrent use.
type ImagePool struct {
	mu      sync.Mutex
	buckets map[image.Rectangle][]*image.RGBA
	maxSize int // per bucket; 0 means unlimited
}

// NewImagePool returns a pool keeping at most maxPerBucket images of each
// size.
func NewImagePool(maxPerBucket int) *ImagePool {
	return &ImagePool{
		buckets: make(map[image.Rectangle][]*image.RGBA),
		maxSize: maxPerBucket,
	}
}

// Get returns a cleared image with the given bounds.
func (p *ImagePool) Get(bounds image.Rectangle) *image.RGBA {
	p.mu.Lock()
	bucket := p.buckets[bounds]
	if n := len(bucket); n > 0 {
		img := bucket[n-1]
		p.buckets[bounds] = bucket[:n-1]
		p.mu.Unlock()
		clear(img.Pix)
		return img
	}
	p.mu.Unlock()
	return image.NewRGBA(bounds)
}

// Put returns img to the pool. Images beyond the bucket limit are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Bounds().Empty() {
		return
	}
	key := img.Bounds()

	p.mu.Lock()
	defer p.mu.Unlock()
	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, img)
}

// Len returns the number of pooled images.
func (p *ImagePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}

// Reset drops every pooled image.
func (p *ImagePool) Reset() {
	p.mu.Lock()
	clear(p.buckets)
	p.mu.Unlock()
}
