package shader

// Effect fragment shaders are written against WebGL2 (GLSL ES 3.00) and
// translated to the context's dialect before compiling. Each one samples
// tex, the output of the previous stage, and may use rand (fresh every
// draw) and frame.

// EffectPreamble declares the inputs every effect can rely on.
const EffectPreamble = `#version 300 es
precision highp float;
precision highp int;

uniform sampler2D tex;
uniform float rand;
uniform int frame;

out vec4 frag_color;

// The viewport always matches the texture, so the fragment position maps
// straight onto texture space.
vec2 tex_coord() {
    return gl_FragCoord.xy / vec2(textureSize(tex, 0));
}

vec2 sub_pixel(ivec2 size) {
    return vec2(1.0 / float(size.x) / 1000.0, 1.0 / float(size.y) / 1000.0);
}

float f_rand(vec2 co) {
    co = co + vec2(rand);
    return fract(sin(dot(co, vec2(12.9898, 78.233))) * 43758.5453);
}

int add_target(int x, int target, int height, int width, int step) {
    int i = x;
    for (int j = 0; j < 64; j++) {
        if (j >= height) {
            break;
        }
        if (i > target + j * width) {
            i -= step;
        }
    }
    return i;
}
`

// GetEffectShader joins the preamble and an effect body.
func GetEffectShader(body string) string {
	return EffectPreamble + "\n" + body
}

// Tears two horizontal bands by shifting pixels along the scanline order;
// the second band flickers in when rand is low.
const EffectFirst = `
void main() {
    ivec2 size = textureSize(tex, 0);
    ivec2 coord = ivec2(tex_coord() * vec2(size));
    float f = float(frame);

    int i = coord.x + (size.y - coord.y) * size.x;
    i = add_target(i,
        size.y / 7 * size.x - size.x * 20 +
        int(cos(f * cos(f / 3.9) / 20.0) * 10.0) * size.x,
        20, size.x, 3);
    if (rand < 0.1) {
        i = add_target(i,
            size.y / 3 * size.x - size.x * 20 +
            int(sin(f / 30.0) * 20.0) * size.x,
            15, size.x, 3);
    }

    vec2 uv = sub_pixel(size) + vec2(
        float(i % size.x) / float(size.x),
        1.0 - float(i / size.x) / float(size.y));
    frag_color = texture(tex, uv);
}
`

// Inverts color, keeping alpha.
const EffectSecond = `
void main() {
    vec4 c = texture(tex, tex_coord());
    frag_color = vec4(1.0 - c.rgb, c.a);
}
`

// Displaces every pixel along a cosine/sine wave.
const EffectThird = `
void main() {
    ivec2 size = textureSize(tex, 0);
    vec2 coord = tex_coord() * vec2(size);
    coord += vec2(cos(coord.x * 0.05) * 20.0, sin(coord.y * 0.05) * 20.0);
    frag_color = texture(tex, coord / vec2(size));
}
`

// Samples red and blue from horizontally offset positions that wobble with frame.
const EffectRGBShift = `
void main() {
    ivec2 size = textureSize(tex, 0);
    ivec2 coord = ivec2(tex_coord() * vec2(size));
    float f = float(frame);
    ivec2 r_offset = ivec2(int(cos(cos(f / 2.0) * 20.0) * 6.0), 0);
    ivec2 b_offset = ivec2(int(-cos(f / 16.0) * 6.0), 0);

    vec2 sp = sub_pixel(size);
    vec2 uv_r = sp + vec2(coord + r_offset) / vec2(size);
    vec2 uv_g = sp + vec2(coord) / vec2(size);
    vec2 uv_b = sp + vec2(coord - b_offset) / vec2(size);

    frag_color = vec4(texture(tex, uv_r).r, texture(tex, uv_g).g, texture(tex, uv_b).b, 1.0);
}
`

// Repeats the row at one sixth height over the bottom of the image.
const EffectRepeatEnd = `
void main() {
    ivec2 size = textureSize(tex, 0);
    ivec2 coord = ivec2(tex_coord() * vec2(size));
    int y_end = size.y / 6;
    if (coord.y < y_end) {
        coord.y = y_end;
    }
    frag_color = texture(tex, vec2(coord) / vec2(size) + sub_pixel(size));
}
`

// Replaces random short horizontal runs with grey noise.
const EffectStatic = `
void main() {
    ivec2 size = textureSize(tex, 0);
    ivec2 coord = ivec2(tex_coord() * vec2(size));
    vec2 cell = floor(vec2(coord) / vec2(120.0, 3.0));

    if (int(f_rand(cell) * 80.0) == 4) {
        float n = f_rand(floor(vec2(3.14) + vec2(coord) / vec2(120.0, 3.0)));
        frag_color = vec4(n, n, n, 1.0);
        return;
    }
    frag_color = texture(tex, sub_pixel(size) + vec2(coord) / vec2(size));
}
`

// Blends sparse per-pixel grey noise over streaky bands.
const EffectStatic2 = `
void main() {
    ivec2 size = textureSize(tex, 0);
    ivec2 coord = ivec2(tex_coord() * vec2(size));
    vec4 color = texture(tex, sub_pixel(size) + vec2(coord) / vec2(size));

    int d = int(100.0 * cos(cos(float(coord.y) / 3.0)));
    float r = f_rand(vec2(float(coord.x / d), cos(float(coord.y / 5)))) * 10.0;
    if (r > 9.3) {
        float c = f_rand(vec2(coord) + vec2(rand));
        if (c > 0.3 && c < 0.8) {
            color = color / 4.0 + vec4(c, c, c, 1.0) * 3.0 / 4.0;
        }
    }
    frag_color = color;
}
`

// Emulates an aperture-grille display: cells of red, green and blue stripes
// with dark gaps, odd columns staggered by half a cell.
const EffectScanlines = `
void main() {
    ivec2 size = textureSize(tex, 0);
    vec2 coord_f = tex_coord() * vec2(size);
    ivec2 coord = ivec2(coord_f);

    const int color_height = 7;
    const int color_width = 4;
    const int cell_width = color_width * 3;

    if ((coord.x / cell_width) % 2 == 0) {
        coord.y += color_height / 2;
        coord_f.y += float(color_height / 2);
    }

    ivec2 cell = ivec2(coord.x - coord.x % cell_width, coord.y - coord.y % color_height);
    vec4 color = texture(tex, sub_pixel(size) + vec2(cell) / vec2(size));

    int m = coord.x % cell_width;
    if (m < color_width) {
        color *= vec4(1.0, 0.0, 0.0, 1.0);
    } else if (m < 2 * color_width) {
        color *= vec4(0.0, 1.0, 0.0, 1.0);
    } else {
        color *= vec4(0.0, 0.0, 1.0, 1.0);
    }

    float x = mod(coord_f.x, float(color_width));
    float y = mod(coord_f.y, float(color_height));
    if (x > float(color_width) - 0.7 || y > float(color_height) - 0.7) {
        color *= 0.5;
        color.a = 1.0;
    } else {
        color = clamp(color * 1.1, 0.0, 1.0);
    }
    frag_color = color;
}
`
