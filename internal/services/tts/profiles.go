package tts

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// Profiles maps speaker identities to voice reference WAV files. Registration
// happens during setup; lookups during synthesis are read-only, so concurrent
// synthesis workers can share one registry.
type Profiles struct {
	mu         sync.RWMutex
	defaultWav string
	bySpeaker  map[string]string
}

// NewProfiles creates a registry whose fallback reference is defaultWav.
func NewProfiles(defaultWav string) *Profiles {
	return &Profiles{
		defaultWav: defaultWav,
		bySpeaker:  make(map[string]string),
	}
}

// Register binds a speaker identity to a reference WAV. The file must exist.
func (p *Profiles) Register(speakerID, wavPath string) error {
	if speakerID == "" {
		return fmt.Errorf("speaker profile: speaker id required")
	}
	if _, err := os.Stat(wavPath); err != nil {
		return fmt.Errorf("speaker profile %s: %w", speakerID, err)
	}
	p.mu.Lock()
	p.bySpeaker[speakerID] = wavPath
	p.mu.Unlock()
	return nil
}

// Reference returns the reference WAV for speakerID, falling back to the
// default when the speaker has no dedicated profile.
func (p *Profiles) Reference(speakerID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if wav, ok := p.bySpeaker[speakerID]; ok {
		return wav
	}
	return p.defaultWav
}

// Speakers lists the registered speaker identities in sorted order.
func (p *Profiles) Speakers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	speakers := make([]string, 0, len(p.bySpeaker))
	for id := range p.bySpeaker {
		speakers = append(speakers, id)
	}
	sort.Strings(speakers)
	return speakers
}
