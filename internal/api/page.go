package api

import (
	"html/template"
	"log"
	"net/http"
)

type pageData struct {
	Theme   string
	Token   string
	CSVPath string
	Hotkey  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	cfg := s.configMgr.Get()
	data := pageData{
		Theme:   cfg.Theme,
		Token:   r.URL.Query().Get("token"),
		CSVPath: cfg.CSVPath,
		Hotkey:  cfg.AbortHotkey,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("API: Failed to render status page: %v", err)
	}
}

var tmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>VEP MIDI AutoMate</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 2rem; }
        body.light { background: #fafafa; color: #222; }
        body.dark { background: #1e1e1e; color: #ddd; }
        .row { display: flex; gap: 0.5rem; margin-bottom: 1rem; }
        input[type=text] { flex: 1; padding: 0.4rem; }
        button { padding: 0.4rem 1rem; }
        #state { font-weight: bold; }
        #log { font-family: ui-monospace, monospace; white-space: pre-wrap; border: 1px solid #888; padding: 0.75rem; height: 24rem; overflow-y: auto; }
        #problems { color: #c0392b; white-space: pre-wrap; }
    </style>
</head>
<body class="{{if eq .Theme "dark"}}dark{{else}}light{{end}}">
    <h1>VEP MIDI AutoMate</h1>
    <div class="row">
        <input type="text" id="csv" value="{{.CSVPath}}" placeholder="Path to your CSV file">
        <button id="start">Start</button>
        <button id="abort">Abort</button>
    </div>
    <p>State: <span id="state">connecting</span>. Press {{.Hotkey}} to abort at any time.</p>
    <div id="problems"></div>
    <div id="log"></div>
    <script>
        const token = {{.Token}};
        const q = (extra) => {
            const p = new URLSearchParams(extra || {});
            if (token) p.set('token', token);
            const s = p.toString();
            return s ? '?' + s : '';
        };
        const log = document.getElementById('log');
        const append = (text) => {
            log.textContent += text + '\n';
            log.scrollTop = log.scrollHeight;
        };

        document.getElementById('start').onclick = async () => {
            document.getElementById('problems').textContent = '';
            log.textContent = '';
            const resp = await fetch('/api/start' + q({csv: document.getElementById('csv').value}), {method: 'POST'});
            if (resp.status === 422) {
                const body = await resp.json();
                document.getElementById('problems').textContent =
                    'Please fix the CSV before continuing.\n\n' + body.problems.join('\n');
            } else if (!resp.ok) {
                document.getElementById('problems').textContent = await resp.text();
            }
        };
        document.getElementById('abort').onclick = () => fetch('/api/abort' + q(), {method: 'POST'});

        const connect = () => {
            const ws = new WebSocket('ws://' + location.host + '/ws' + q());
            ws.onmessage = (e) => {
                const msg = JSON.parse(e.data);
                if (msg.type === 'progress') append(msg.payload.text);
                if (msg.type === 'state') document.getElementById('state').textContent = msg.payload.state;
            };
            ws.onclose = () => {
                document.getElementById('state').textContent = 'disconnected';
                setTimeout(connect, 2000);
            };
        };
        connect();
    </script>
</body>
</html>
`))
