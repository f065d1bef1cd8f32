package feature

import "testing"

// TestFlash_ManualExposureGuard は手動露出中にAEモードを上書きしないことを検証する
func TestFlash_ManualExposureGuard(t *testing.T) {
	flash := NewFlash(true, testLogger())
	flash.Set(FlashAuto)

	// マージ済みリクエストでAEモードが既にオフ（手動露出が有効）
	off := AEModeOff
	current := Request{AEMode: &off}

	delta := flash.Delta(current)

	if delta.AEMode != nil {
		t.Errorf("手動露出中にAEモードを上書きしようとしました: %v", *delta.AEMode)
	}
	if delta.Flash == nil || *delta.Flash != FlashControlOff {
		t.Error("手動露出中にフラッシュがオフになっていません")
	}
}

// TestFlash_Modes は各フラッシュモードの差分内容を検証する
func TestFlash_Modes(t *testing.T) {
	testCases := []struct {
		name        string
		mode        FlashMode
		expectAE    *AEMode
		expectFlash FlashControl
	}{
		{"自動フラッシュ", FlashAuto, aeModePtr(AEModeOnAutoFlash), FlashControlOff},
		{"常時フラッシュ", FlashAlways, aeModePtr(AEModeOnAlwaysFlash), FlashControlOff},
		{"トーチ", FlashTorch, aeModePtr(AEModeOn), FlashControlTorch},
		{"フラッシュなし", FlashOff, nil, FlashControlOff},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flash := NewFlash(true, testLogger())
			flash.Set(tc.mode)

			delta := flash.Delta(Request{})

			if tc.expectAE == nil {
				if delta.AEMode != nil {
					t.Errorf("AEモードが設定されてはいけません: %v", *delta.AEMode)
				}
			} else {
				if delta.AEMode == nil || *delta.AEMode != *tc.expectAE {
					t.Errorf("AEモード: 期待 %v, 実際 %v", *tc.expectAE, delta.AEMode)
				}
			}
			if delta.Flash == nil || *delta.Flash != tc.expectFlash {
				t.Errorf("フラッシュ指示: 期待 %v, 実際 %v", tc.expectFlash, delta.Flash)
			}
		})
	}
}

// TestFlash_Unavailable はフラッシュ非搭載デバイスで空の差分を返すことを検証する
func TestFlash_Unavailable(t *testing.T) {
	flash := NewFlash(false, testLogger())
	flash.Set(FlashAlways)

	delta := flash.Delta(Request{})

	if delta.AEMode != nil || delta.Flash != nil {
		t.Error("フラッシュ非搭載デバイスで差分が生成されました")
	}
}

// TestParseFlashMode は文字列からの変換を検証する
func TestParseFlashMode(t *testing.T) {
	if _, ok := ParseFlashMode("auto"); !ok {
		t.Error("autoの変換に失敗しました")
	}
	if _, ok := ParseFlashMode("strobe"); ok {
		t.Error("未知のモードが受理されました")
	}
}

func aeModePtr(m AEMode) *AEMode { return &m }
