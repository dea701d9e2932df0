package device

import "sync"

// Color is an RGB value.
type Color struct {
	R, G, B uint8
}

// White is full brightness on all channels.
var White = Color{255, 255, 255}

func colorAt(p []byte) Color {
	return Color{p[0], p[1], p[2]}
}

// Scale scales the color by level/255.
func (c Color) Scale(level uint8) Color {
	scale := func(v uint8) uint8 {
		return uint8(uint16(v) * uint16(level) / 255)
	}
	return Color{scale(c.R), scale(c.G), scale(c.B)}
}

// Strip is an addressable RGB LED array.
//
// Payload formats:
//
//	soundtolight  R G B level...   base color scaled per LED by band level
//	slave         (R G B)...       one triple per LED from the first
//	mood          R G B            fill
//	white                          fill full white
//	off                            clear
//	snake         START LEN R G B  LEN (at most MaxSnakeLength) LEDs from START
type Strip struct {
	leds    []Color
	lock    sync.RWMutex
	updates uint64
}

// NewStrip creates a strip of n LEDs, all off.
func NewStrip(n int) *Strip {
	return &Strip{leds: make([]Color, n)}
}

// Len returns the number of LEDs.
func (s *Strip) Len() int {
	return len(s.leds)
}

// LEDs returns a snapshot of the colors.
func (s *Strip) LEDs() []Color {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]Color(nil), s.leds...)
}

// Updates returns how many commands changed the strip.
func (s *Strip) Updates() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.updates
}

// Register installs the strip commands into the mux.
func (s *Strip) Register(m *Mux) *Mux {
	return m.HandleFunc(CmdSoundToLight, s.SoundToLight).
		HandleFunc(CmdSlave, s.Slave).
		HandleFunc(CmdMood, s.Mood).
		HandleFunc(CmdWhite, s.White).
		HandleFunc(CmdOff, s.Off).
		HandleFunc(CmdSnake, s.Snake)
}

func (s *Strip) update(fn func(leds []Color)) {
	s.lock.Lock()
	fn(s.leds)
	s.updates++
	s.lock.Unlock()
}

func (s *Strip) fill(c Color) {
	s.update(func(leds []Color) {
		for i := range leds {
			leds[i] = c
		}
	})
}

// SoundToLight scales the base color per LED by the band levels,
// spreading the bands evenly over the strip.
func (s *Strip) SoundToLight(payload []byte) error {
	if len(payload) < 4 {
		return ErrShortPayload
	}
	base, levels := colorAt(payload), payload[3:]
	s.update(func(leds []Color) {
		for i := range leds {
			leds[i] = base.Scale(levels[i*len(levels)/len(leds)])
		}
	})
	return nil
}

// Slave copies one RGB triple per LED. LEDs without a triple keep
// their color, extra triples are ignored.
func (s *Strip) Slave(payload []byte) error {
	if len(payload) < 3 {
		return ErrShortPayload
	}
	s.update(func(leds []Color) {
		for i := 0; i < len(leds) && i*3+3 <= len(payload); i++ {
			leds[i] = colorAt(payload[i*3:])
		}
	})
	return nil
}

// Mood fills the strip with one color.
func (s *Strip) Mood(payload []byte) error {
	if len(payload) < 3 {
		return ErrShortPayload
	}
	s.fill(colorAt(payload))
	return nil
}

// White fills the strip with full white.
func (s *Strip) White([]byte) error {
	s.fill(White)
	return nil
}

// Off clears the strip.
func (s *Strip) Off([]byte) error {
	s.fill(Color{})
	return nil
}

// Snake clears the strip and lights a segment, wrapping at the end.
func (s *Strip) Snake(payload []byte) error {
	if len(payload) < 5 {
		return ErrShortPayload
	}
	start, length, c := int(payload[0]), int(payload[1]), colorAt(payload[2:])
	if length > MaxSnakeLength {
		length = MaxSnakeLength
	}
	s.update(func(leds []Color) {
		for i := range leds {
			leds[i] = Color{}
		}
		if len(leds) == 0 {
			return
		}
		for i := 0; i < length; i++ {
			leds[(start+i)%len(leds)] = c
		}
	})
	return nil
}
