package logging

import "testing"

func TestInit(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"info", "json", false},
		{"debug", "console", false},
		{"warn", "", false},
		{"bogus", "json", true},
		{"info", "xml", true},
	}

	for _, tt := range tests {
		logger, err := Init(tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("Init(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
		}
		if err == nil {
			logger.Debug("probe")
			_ = logger.Sync()
		}
	}
}

func TestNew_NilRoot(t *testing.T) {
	logger := New(nil, "healer")
	logger.Info("must not panic")
}
