package motor

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompileBailout(t *testing.T) {
	Convey("CompileBailout", t, func() {
		bo, err := CompileBailout("skip-us-west-2", "region == 'us-west-2'")
		So(err, ShouldBeNil)
		So(bo.Fn(Argset{"region": "us-west-2"}), ShouldBeTrue)
		So(bo.Fn(Argset{"region": "us-east-1"}), ShouldBeFalse)
	})

	Convey("a malformed expression is rejected at compile time", t, func() {
		_, err := CompileBailout("bad", "region ==")
		So(err, ShouldNotBeNil)
	})

	Convey("AtomExpression evaluates per-atom predicate expressions", t, func() {
		atomOK := AtomExpression(map[string]interface{}{"value": 150})
		p := All(Atom("value > 100"), Atom("value < 200"))
		ok, err := p.Eval(atomOK)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
	})
}
