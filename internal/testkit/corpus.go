package testkit

// Canonical description documents of the teaching examples. Tests across
// packages (driver, suite, fuzz seeds) share these instead of re-inventing
// slightly different programs.

// BookDoc holds a shared borrow confined to an inner block and a
// reassignment after the block closes. Valid.
const BookDoc = `{
  "name": "book",
  "source": "let mut name = \"Peter Pan\"\n{\n  let r = &name\n}\nname = \"Hook\"\n",
  "main": [
    {"stmt": "decl", "name": "name", "mut": true,
     "init": {"expr": "lit", "value": "Peter Pan", "type": "str", "span": [15, 26]},
     "span": [0, 26]},
    {"stmt": "open", "span": [27, 28]},
    {"stmt": "decl", "name": "r",
     "init": {"expr": "borrow",
              "of": {"expr": "name", "name": "name", "span": [40, 45]},
              "span": [39, 45]},
     "span": [31, 45]},
    {"stmt": "close", "span": [46, 47]},
    {"stmt": "assign",
     "target": {"expr": "name", "name": "name", "span": [48, 52]},
     "value": {"expr": "lit", "value": "Hook", "type": "str", "span": [55, 61]},
     "span": [48, 61]}
  ],
  "main_span": [0, 62]
}`

// CircleBrokenDoc is the deliberately inconsistent example: the struct
// declares one lifetime parameter and the impl supplies two. Exactly one
// arity mismatch, nothing else.
const CircleBrokenDoc = `{
  "name": "circle_broken",
  "source": "struct Circle<'i> { r: &'i i32 }\nimpl<'i, 'a> Circle<'i> {\n  fn cmp(&'i self, other: &'a i32) -> &'i i32\n}\n",
  "structs": [
    {"name": "Circle", "lifetimes": ["'i"],
     "fields": [
       {"name": "r",
        "type": {"kind": "borrowed", "lifetime": "'i", "name": "i32"},
        "span": [20, 30]}
     ],
     "span": [0, 32]}
  ],
  "functions": [
    {"name": "cmp",
     "receiver": {"struct": "Circle", "lifetimes": ["'i", "'a"],
                  "self": true, "self_lifetime": "'i", "span": [33, 58]},
     "params": [
       {"name": "other",
        "type": {"kind": "borrowed", "lifetime": "'a", "name": "i32"},
        "span": [78, 93]}
     ],
     "returns": {"kind": "borrowed", "lifetime": "'i", "name": "i32"},
     "span": [61, 106]}
  ],
  "main": [],
  "main_span": [107, 108]
}`

// CircleCmpDoc is the consistent variant: a cmp-style method with two
// same-tagged reference inputs and a conditional result, called from a
// scope both referents contain. Valid.
const CircleCmpDoc = `{
  "name": "circle",
  "source": "struct Circle<'i> { r: &'i i32 }\nimpl<'i> Circle<'i> {\n  fn cmp<'t>(&self, other: &'t i32) -> &'t i32 { if true { other } else { self.r } }\n}\nlet x = 5\nlet c = Circle { r: &x }\n{\n  let y = 6\n  let v = c.cmp(&y)\n}\n",
  "structs": [
    {"name": "Circle", "lifetimes": ["'i"],
     "fields": [
       {"name": "r",
        "type": {"kind": "borrowed", "lifetime": "'i", "name": "i32"},
        "span": [20, 30]}
     ],
     "span": [0, 32]}
  ],
  "functions": [
    {"name": "cmp",
     "receiver": {"struct": "Circle", "lifetimes": ["'i"],
                  "self": true, "span": [33, 54]},
     "lifetimes": ["'t"],
     "params": [
       {"name": "other",
        "type": {"kind": "borrowed", "lifetime": "'t", "name": "i32"},
        "span": [75, 90]}
     ],
     "returns": {"kind": "borrowed", "lifetime": "'t", "name": "i32"},
     "body": [
       {"stmt": "return",
        "expr": {"expr": "cond",
                 "cond": {"expr": "lit", "value": "true", "type": "bool", "span": [108, 112]},
                 "then": {"expr": "name", "name": "other", "span": [115, 120]},
                 "else": {"expr": "field", "name": "r",
                          "base": {"expr": "name", "name": "self", "span": [130, 134]},
                          "span": [130, 136]},
                 "span": [105, 138]},
        "span": [105, 138]}
     ],
     "span": [57, 140]}
  ],
  "main": [
    {"stmt": "decl", "name": "x",
     "init": {"expr": "lit", "value": "5", "type": "i32", "span": [151, 152]},
     "span": [143, 152]},
    {"stmt": "decl", "name": "c",
     "init": {"expr": "struct", "name": "Circle",
              "fields": [
                {"name": "r",
                 "value": {"expr": "borrow",
                           "of": {"expr": "name", "name": "x", "span": [174, 175]},
                           "span": [173, 175]},
                 "span": [170, 175]}
              ],
              "span": [161, 177]},
     "span": [153, 177]},
    {"stmt": "open", "span": [178, 179]},
    {"stmt": "decl", "name": "y",
     "init": {"expr": "lit", "value": "6", "type": "i32", "span": [190, 191]},
     "span": [182, 191]},
    {"stmt": "decl", "name": "v",
     "init": {"expr": "call", "name": "cmp",
              "recv": {"expr": "name", "name": "c", "span": [202, 203]},
              "args": [
                {"expr": "borrow",
                 "of": {"expr": "name", "name": "y", "span": [209, 210]},
                 "span": [208, 210]}
              ],
              "span": [202, 211]},
     "span": [194, 211]},
    {"stmt": "close", "span": [212, 213]}
  ],
  "main_span": [143, 214]
}`

// Corpus returns every canonical document keyed by a short name.
func Corpus() map[string]string {
	return map[string]string{
		"book":          BookDoc,
		"circle_broken": CircleBrokenDoc,
		"circle":        CircleCmpDoc,
	}
}
