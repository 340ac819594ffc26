package stagecraft

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// SoundManager plays audio stored in the Audio cache. The ebiten audio
// context is created on first playback.
type SoundManager struct {
	cache      *BaseCache
	sampleRate int
	logger     *log.Logger

	ctx     *audio.Context
	players map[string][]*audio.Player
	mute    bool
	volume  float64
}

// NewSoundManager creates a manager reading encoded audio from cache.
func NewSoundManager(cache *BaseCache, sampleRate int, logger *log.Logger) *SoundManager {
	if logger == nil {
		logger = discardLogger()
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &SoundManager{
		cache:      cache,
		sampleRate: sampleRate,
		logger:     logger,
		players:    make(map[string][]*audio.Player),
		volume:     1,
	}
}

func (s *SoundManager) context() *audio.Context {
	if s.ctx != nil {
		return s.ctx
	}
	if ctx := audio.CurrentContext(); ctx != nil {
		s.ctx = ctx
	} else {
		s.ctx = audio.NewContext(s.sampleRate)
	}
	return s.ctx
}

// Has reports whether audio is cached under key.
func (s *SoundManager) Has(key string) bool { return s.cache.Has(key) }

// Add creates a player for the cached audio under key without starting it.
func (s *SoundManager) Add(key string) (*audio.Player, error) {
	raw, ok := s.cache.Get(key).([]byte)
	if !ok {
		return nil, fmt.Errorf("stagecraft: no audio cached under %q", key)
	}
	ctx := s.context()

	var p *audio.Player
	if bytes.HasPrefix(raw, []byte("RIFF")) {
		stream, err := wav.DecodeWithSampleRate(ctx.SampleRate(), bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("stagecraft: decode wav %q: %w", key, err)
		}
		p, err = ctx.NewPlayer(stream)
		if err != nil {
			return nil, fmt.Errorf("stagecraft: audio player %q: %w", key, err)
		}
	} else {
		p = ctx.NewPlayerFromBytes(raw)
	}
	p.SetVolume(s.effectiveVolume())
	s.players[key] = append(s.players[key], p)
	return p, nil
}

// Play starts the cached audio under key from the beginning.
func (s *SoundManager) Play(key string) bool {
	p, err := s.Add(key)
	if err != nil {
		s.logger.Warn("cannot play sound", "key", key, "error", err)
		return false
	}
	p.Play()
	return true
}

// SetMute silences every player.
func (s *SoundManager) SetMute(mute bool) {
	s.mute = mute
	s.applyVolume()
}

// SetVolume sets the master volume in [0, 1].
func (s *SoundManager) SetVolume(v float64) {
	s.volume = clamp(v, 0, 1)
	s.applyVolume()
}

func (s *SoundManager) effectiveVolume() float64 {
	if s.mute {
		return 0
	}
	return s.volume
}

func (s *SoundManager) applyVolume() {
	v := s.effectiveVolume()
	for _, list := range s.players {
		for _, p := range list {
			p.SetVolume(v)
		}
	}
}

// PauseAll pauses every player.
func (s *SoundManager) PauseAll() {
	for _, list := range s.players {
		for _, p := range list {
			p.Pause()
		}
	}
}

// StopAll closes every player.
func (s *SoundManager) StopAll() {
	for key, list := range s.players {
		for _, p := range list {
			if err := p.Close(); err != nil {
				s.logger.Debug("closing audio player", "key", key, "error", err)
			}
		}
	}
	clear(s.players)
}

// Destroy stops all playback.
func (s *SoundManager) Destroy() {
	s.StopAll()
}
