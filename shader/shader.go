package shader

// ────────────────────────────────── Desktop GL ──────────────────────────────────

const effectVertexSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
layout (location = 1) in vec2 in_uv;
out vec2 frag_tex_coord;
void main() {
    frag_tex_coord = in_uv;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const presentVertexSourceGL = `#version 410 core
uniform mat4 model_matrix;
uniform mat4 view_matrix;
uniform mat4 proj_matrix;
layout (location = 0) in vec2 in_vert;
layout (location = 1) in vec2 in_uv;
out vec2 frag_tex_coord;
void main() {
    frag_tex_coord = in_uv;
    gl_Position = proj_matrix * view_matrix * model_matrix * vec4(in_vert, 0.0, 1.0);
}
`

const presentFragmentSourceGL = `#version 410 core
uniform sampler2D tex;
in vec2 frag_tex_coord;
out vec4 frag_color;
void main() { frag_color = texture(tex, frag_tex_coord); }
`

const textVertexSourceGL = `#version 410 core
uniform mat4 view_matrix;
uniform mat4 proj_matrix;
layout (location = 0) in vec2 in_vert;
layout (location = 1) in vec2 in_uv;
layout (location = 2) in vec4 in_color;
out vec2 frag_tex_coord;
out vec4 frag_color;
void main() {
    frag_tex_coord = in_uv;
    frag_color = in_color;
    gl_Position = proj_matrix * view_matrix * vec4(in_vert, 0.0, 1.0);
}
`

const textFragmentSourceGL = `#version 410 core
uniform sampler2D tex;
in vec2 frag_tex_coord;
in vec4 frag_color;
out vec4 out_color;
void main() { out_color = texture(tex, frag_tex_coord) * frag_color; }
`

// ──────────────────────────────────── GLES ──────────────────────────────────────

const effectVertexSourceGLES = `#version 300 es
layout (location = 0) in vec2 in_vert;
layout (location = 1) in vec2 in_uv;
out vec2 frag_tex_coord;
void main() {
    frag_tex_coord = in_uv;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const presentVertexSourceGLES = `#version 300 es
uniform mat4 model_matrix;
uniform mat4 view_matrix;
uniform mat4 proj_matrix;
layout (location = 0) in vec2 in_vert;
layout (location = 1) in vec2 in_uv;
out vec2 frag_tex_coord;
void main() {
    frag_tex_coord = in_uv;
    gl_Position = proj_matrix * view_matrix * model_matrix * vec4(in_vert, 0.0, 1.0);
}
`

const presentFragmentSourceGLES = `#version 300 es
precision mediump float;
uniform sampler2D tex;
in vec2 frag_tex_coord;
out vec4 frag_color;
void main() { frag_color = texture(tex, frag_tex_coord); }
`

const textVertexSourceGLES = `#version 300 es
uniform mat4 view_matrix;
uniform mat4 proj_matrix;
layout (location = 0) in vec2 in_vert;
layout (location = 1) in vec2 in_uv;
layout (location = 2) in vec4 in_color;
out vec2 frag_tex_coord;
out vec4 frag_color;
void main() {
    frag_tex_coord = in_uv;
    frag_color = in_color;
    gl_Position = proj_matrix * view_matrix * vec4(in_vert, 0.0, 1.0);
}
`

const textFragmentSourceGLES = `#version 300 es
precision mediump float;
uniform sampler2D tex;
in vec2 frag_tex_coord;
in vec4 frag_color;
out vec4 out_color;
void main() { out_color = texture(tex, frag_tex_coord) * frag_color; }
`

// ────────────────────────────────── Geometry ───────────────────────────────────

// FilterQuad covers clip space with two triangles, (x, y, u, v) per vertex.
var FilterQuad = []float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
	-1, -1, 0, 0,
	1, 1, 1, 1,
}

// UnitQuad covers [0,1]² with two triangles; the presentation model matrix
// scales and places it in window pixels.
var UnitQuad = []float32{
	0, 0, 0, 0,
	1, 0, 1, 0,
	1, 1, 1, 1,
	0, 1, 0, 1,
	0, 0, 0, 0,
	1, 1, 1, 1,
}

// ────────────────────────────────── Public API ─────────────────────────────────

func GenerateVertexShader(isGLES bool) string {
	if isGLES {
		return effectVertexSourceGLES
	}
	return effectVertexSourceGL
}

func GetPresentShaders(isGLES bool) (vertex, fragment string) {
	if isGLES {
		return presentVertexSourceGLES, presentFragmentSourceGLES
	}
	return presentVertexSourceGL, presentFragmentSourceGL
}

func GetTextShaders(isGLES bool) (vertex, fragment string) {
	if isGLES {
		return textVertexSourceGLES, textFragmentSourceGLES
	}
	return textVertexSourceGL, textFragmentSourceGL
}
