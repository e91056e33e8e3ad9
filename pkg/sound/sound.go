package sound

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Player plays wav files on a background goroutine.  Each new sound cuts
// off the one before it.
type Player struct {
	soundsToPlay chan string
}

func NewPlayer() *Player {
	p := &Player{
		soundsToPlay: make(chan string, 1),
	}
	go p.loop()
	return p
}

// Play queues a sound without blocking.  If the player is still busy the
// sound is dropped.
func (p *Player) Play(path string) {
	if path == "" {
		return
	}
	defer func() {
		recover() // Don't die if the player has already been closed.
	}()
	select {
	case p.soundsToPlay <- path:
	default:
		fmt.Println("Sound player busy, dropping: ", path)
	}
}

func (p *Player) Close() {
	close(p.soundsToPlay)
}

func (p *Player) loop() {
	defer func() {
		recover()
		for s := range p.soundsToPlay {
			fmt.Println("Unable to play", s)
		}
	}()
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
	if err != nil {
		fmt.Println("Failed to open speaker", err)
		for s := range p.soundsToPlay {
			fmt.Println("Unable to play", s)
		}
		return
	}
	var ctrl *beep.Ctrl
	var s beep.StreamSeekCloser
	for soundToPlay := range p.soundsToPlay {
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
			ctrl = nil
		}
		if s != nil {
			s.Close()
			s = nil
		}

		f, err := os.Open(soundToPlay)
		if err != nil {
			fmt.Println("Failed to open sound", err)
			continue
		}
		s, _, err = wav.Decode(f)
		if err != nil {
			fmt.Println("Failed to decode sound", err)
			f.Close()
			continue
		}
		ctrl = &beep.Ctrl{Streamer: s}
		speaker.Play(ctrl)
	}
}
