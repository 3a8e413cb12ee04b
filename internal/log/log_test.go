package log

import (
	"sync"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel(LevelInfo)
	if enabled(LevelDebug) {
		t.Fatal("debug must be suppressed at info level")
	}
	if !enabled(LevelInfo) || !enabled(LevelError) {
		t.Fatal("info and error must pass at info level")
	}

	SetLevel(LevelError)
	if enabled(LevelInfo) {
		t.Fatal("info must be suppressed at error level")
	}

	SetLevel(LevelDebug)
	if !enabled(LevelDebug) {
		t.Fatal("debug must pass at debug level")
	}
}

func TestSetLevelConcurrent(t *testing.T) {
	defer SetLevel(LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				SetLevel(LevelDebug)
			} else {
				enabled(LevelInfo)
			}
		}(i)
	}
	wg.Wait()
}
