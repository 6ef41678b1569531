package fingerprint

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestFiles(t *testing.T) {
	Convey("Given a set of files", t, func() {
		dir := t.TempDir()
		a := writeFile(t, dir, "a.yml", "alpha")
		b := writeFile(t, dir, "b.yml", "beta")

		Convey("When fingerprinting twice", func() {
			f1, err1 := Files([]string{a, b})
			f2, err2 := Files([]string{a, b})

			Convey("Then the result is stable", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(f1, ShouldEqual, f2)
				So(f1.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When the result is compared to the documented construction", func() {
			got, err := Files([]string{a, b})
			da := sha256.Sum256([]byte("alpha"))
			db := sha256.Sum256([]byte("beta"))
			want := sha256.Sum256(append(da[:], db[:]...))

			Convey("Then it is the digest of the concatenated digests", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, Fingerprint(want))
			})
		})

		Convey("When the order changes", func() {
			f1, _ := Files([]string{a, b})
			f2, _ := Files([]string{b, a})

			Convey("Then the fingerprint changes", func() {
				So(f1, ShouldNotEqual, f2)
			})
		})

		Convey("When a file's content changes", func() {
			before, _ := Files([]string{a, b})
			writeFile(t, dir, "b.yml", "beta2")
			after, _ := Files([]string{a, b})

			Convey("Then the fingerprint changes", func() {
				So(before, ShouldNotEqual, after)
			})
		})

		Convey("When a listed file is missing", func() {
			with, err := Files([]string{a, filepath.Join(dir, "missing.yml"), b})
			without, _ := Files([]string{a, b})

			Convey("Then it contributes nothing", func() {
				So(err, ShouldBeNil)
				So(with, ShouldEqual, without)
			})
		})

		Convey("When a listed path cannot be read", func() {
			sub := filepath.Join(dir, "sub")
			So(os.Mkdir(sub, 0o755), ShouldBeNil)
			_, err := Files([]string{a, sub})

			Convey("Then an error is returned", func() {
				So(errors.Is(err, ErrUnreadable), ShouldBeTrue)
			})
		})

		Convey("When the set is empty", func() {
			f, err := Files(nil)

			Convey("Then it is the digest of nothing", func() {
				So(err, ShouldBeNil)
				So(f, ShouldEqual, Fingerprint(sha256.Sum256(nil)))
			})
		})
	})
}

func TestLogic(t *testing.T) {
	Convey("Given a logic identifier", t, func() {
		dir := t.TempDir()
		bin := writeFile(t, dir, "podium", "binary-v1")

		Convey("When it exists", func() {
			f, err := Logic(bin)

			Convey("Then it fingerprints the file", func() {
				So(err, ShouldBeNil)
				So(f, ShouldEqual, Fingerprint(sha256.Sum256([]byte("binary-v1"))))
			})
		})

		Convey("When it is reached through a symlink", func() {
			link := filepath.Join(dir, "link")
			So(os.Symlink(bin, link), ShouldBeNil)
			direct, _ := Logic(bin)
			via, err := Logic(link)

			Convey("Then the target is fingerprinted", func() {
				So(err, ShouldBeNil)
				So(via, ShouldEqual, direct)
			})
		})

		Convey("When it is missing", func() {
			_, err := Logic(filepath.Join(dir, "nope"))

			Convey("Then ErrLogic is returned", func() {
				So(errors.Is(err, ErrLogic), ShouldBeTrue)
			})
		})

		Convey("When it is empty", func() {
			_, err := Logic("")

			Convey("Then ErrLogic is returned", func() {
				So(errors.Is(err, ErrLogic), ShouldBeTrue)
			})
		})

		Convey("When the running executable is used", func() {
			f, err := Executable()

			Convey("Then a fingerprint is produced", func() {
				So(err, ShouldBeNil)
				So(f.IsZero(), ShouldBeFalse)
			})
		})
	})
}

func TestWithAndParse(t *testing.T) {
	Convey("Given a fingerprint", t, func() {
		base := Fingerprint(sha256.Sum256([]byte("exe")))

		Convey("When folding different versions", func() {
			v1 := base.With("history/v1")
			v2 := base.With("history/v2")

			Convey("Then the results differ and are stable", func() {
				So(v1, ShouldNotEqual, v2)
				So(v1, ShouldEqual, base.With("history/v1"))
			})
		})

		Convey("When parts are split differently", func() {
			Convey("Then the results differ", func() {
				So(base.With("ab", "c"), ShouldNotEqual, base.With("a", "bc"))
			})
		})

		Convey("When rendered and parsed", func() {
			got, err := Parse(base.String())

			Convey("Then the value round-trips", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, base)
				So(len(base.String()), ShouldEqual, 64)
			})
		})

		Convey("When parsing garbage", func() {
			_, errHex := Parse("zz")
			_, errLen := Parse("abcd")

			Convey("Then ErrMalformed is returned", func() {
				So(errors.Is(errHex, ErrMalformed), ShouldBeTrue)
				So(errors.Is(errLen, ErrMalformed), ShouldBeTrue)
			})
		})
	})
}
