package mediasvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		wantBase string
		wantExt  string
	}{
		{filename: "photo.PNG", wantBase: "photo", wantExt: ".PNG"},
		{filename: "my holiday pic.jpg", wantBase: "my_holiday_pic", wantExt: ".jpg"},
		{filename: "../../etc/passwd.png", wantBase: "passwd", wantExt: ".png"},
		{filename: `C:\Users\bob\me.gif`, wantBase: "me", wantExt: ".gif"},
		{filename: "Café Crème.jpeg", wantBase: "Cafe_Creme", wantExt: ".jpeg"},
		{filename: "日本.png", wantBase: "image", wantExt: ".png"},
		{filename: "..hidden_.webp", wantBase: "hidden", wantExt: ".webp"},
		{filename: "a$b%c.png", wantBase: "abc", wantExt: ".png"},
		{filename: "archive.tar.gz", wantBase: "archive.tar", wantExt: ".gz"},
		{filename: ".png", wantBase: "image", wantExt: ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			base, ext := splitFilename(tt.filename)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}
